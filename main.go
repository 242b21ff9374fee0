// main.go
// Copyright (c) 2026 Ichijo Hodaka
// ESR Fit（ランダム探索によるスペクトルフィッティング）
// - ラジカルのパラメータを「値 ± 幅」の一様乱数で動かす
// - 理論スペクトルを合成し、実測に合わせてスケールして sigma を計算
// - sigma が下がったときだけ採用（貪欲法）
// - 終了条件：繰り返し回数到達 or Ctrl-C
// - 最後に結果表・xlsx / tsv / archive / session を出力
//
// 表示は有効数字4桁（%.4g）

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ichijohodaka/esrfit/internal/archive"
	"github.com/ichijohodaka/esrfit/internal/compress"
	"github.com/ichijohodaka/esrfit/internal/fit"
	"github.com/ichijohodaka/esrfit/internal/logx"
	"github.com/ichijohodaka/esrfit/internal/radical"
	"github.com/ichijohodaka/esrfit/internal/specio"
	"github.com/ichijohodaka/esrfit/internal/state"
)

const defaultSweep = 100.0

// setup is the resolved input of a run.
type setup struct {
	radicals  []radical.Radical
	points    int
	sweep     float64
	field     []float64
	empirical []float64
	resumed   *state.Session
}

type paramsKind int

const (
	paramsUnknown paramsKind = iota
	paramsSim
	paramsJSON
	paramsSession
)

func kindOf(path string) paramsKind {
	p := strings.ToLower(path)
	if c := compress.ForPath(p); c.Name() != "none" {
		p = strings.TrimSuffix(p, compress.Suffix(c))
	}
	switch filepath.Ext(p) {
	case ".sim":
		return paramsSim
	case ".json":
		return paramsJSON
	case ".esrafel":
		return paramsSession
	default:
		return paramsUnknown
	}
}

func prepare(cfg Config, log *logx.Logger) (setup, error) {
	s := setup{
		radicals: radical.CloneAll(cfg.Radicals),
		points:   cfg.Points,
		sweep:    cfg.SweepWidth,
	}

	if cfg.ParamsFile != "" {
		switch kindOf(cfg.ParamsFile) {
		case paramsSim:
			sim, err := specio.LoadSim(cfg.ParamsFile)
			if err != nil {
				return setup{}, err
			}
			s.radicals = sim.Radicals
			if !cfg.Explicit("points") {
				s.points = sim.Points
			}
			if !cfg.Explicit("sweep") {
				s.sweep = sim.SweepWidth
			}
		case paramsJSON:
			data, err := os.ReadFile(cfg.ParamsFile)
			if err != nil {
				return setup{}, err
			}
			var rads []radical.Radical
			if err := json.Unmarshal(data, &rads); err != nil {
				return setup{}, fmt.Errorf("%s: %w", cfg.ParamsFile, err)
			}
			if err := radical.ValidateAll(rads); err != nil {
				return setup{}, fmt.Errorf("%s: %w", cfg.ParamsFile, err)
			}
			s.radicals = rads
		case paramsSession:
			sess, err := state.Load(cfg.ParamsFile)
			if err != nil {
				return setup{}, err
			}
			if cfg.Explicit("points") && cfg.Points != sess.Points {
				log.Warnf("session has %d points, -points %d ignored", sess.Points, cfg.Points)
			}
			s.radicals = sess.Radicals
			s.points = sess.Points
			s.sweep = sess.SweepWidth
			s.empirical = sess.Empirical
			s.resumed = &sess
			log.Infof("resuming %s at iteration %d, sigma %.6g", cfg.ParamsFile, sess.Iterations, sess.Sigma)
		default:
			return setup{}, fmt.Errorf("unknown params file type: %s", cfg.ParamsFile)
		}
	}
	if len(s.radicals) == 0 {
		return setup{}, errors.New("no radicals to simulate")
	}

	if cfg.SpectrumFile != "" {
		var sp specio.Spectrum
		var err error
		if cfg.Sheet != "" {
			sp, err = specio.ReadXLSX(cfg.SpectrumFile, cfg.Sheet)
		} else {
			sp, err = specio.Load(cfg.SpectrumFile)
		}
		if err != nil {
			return setup{}, err
		}
		if s.resumed != nil && state.Checksum(sp.Intensity) != state.Checksum(s.resumed.Empirical) {
			log.Infof("%s differs from the session spectrum, sigma starts over", cfg.SpectrumFile)
			s.resumed.Sigma = fit.InitialSigma
		}
		if s.points != sp.Len() {
			log.Infof("points %d -> %d from %s", s.points, sp.Len(), cfg.SpectrumFile)
			s.points = sp.Len()
		}
		if s.sweep == 0 {
			s.sweep = sp.SweepWidth()
		}
		s.empirical = sp.Intensity
		s.field = sp.Field
	}
	if s.sweep == 0 {
		s.sweep = defaultSweep
	}
	if len(s.field) != s.points {
		s.field = fieldAxis(s.points, s.sweep)
	}
	return s, nil
}

func iterate(cfg Config, ctrl *fit.Controller, tracer *archive.Tracer, events *state.EventLog, log *logx.Logger) {
	// Ctrl-C 対応
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\n[Ctrl-C] interrupt received. stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	start := ctrl.Stats().Iterations
	var limit int64
	if cfg.MaxIters > 0 {
		limit = start + cfg.MaxIters
	}

	// 進捗表示（固定幅・行の残りを消す）
	printProgress := func(st fit.Stats, sigma float64) {
		var pct float64
		if cfg.MaxIters > 0 {
			pct = float64(st.Iterations-start) / float64(cfg.MaxIters) * 100.0
		}
		line := fmt.Sprintf(
			"\riter=%12d (%6.2f%%)  accepted=%10d  failed=%10d  sigma=%s",
			st.Iterations, pct, st.Accepted, st.Failed, fmt4(sigma),
		)
		fmt.Print(line + "        ")
	}

	d := fit.NewDriver(ctrl,
		fit.WithInterval(cfg.Interval),
		fit.WithRedrawEvery(cfg.RedrawEvery),
		fit.WithMaxIterations(limit),
		fit.WithLogger(log.With("fit")),
	)

	warned := false
	for u := range d.Run(ctx) {
		switch u.Kind {
		case fit.StepUpdate:
			switch {
			case u.Err != nil:
				if !warned {
					log.Warnf("iteration %d: candidate rejected: %v", u.Stats.Iterations, u.Err)
					warned = true
				}
				events.Addf("iteration %d: %v", u.Stats.Iterations, u.Err)
			case u.Result.Accepted:
				tracer.Observe(u.Stats.Iterations, u.Result.State.Sigma)
				events.Addf("iteration %d: sigma %.6g", u.Stats.Iterations, u.Result.State.Sigma)
			}
			if cfg.PrintEvery > 0 && u.Stats.Iterations%cfg.PrintEvery == 0 {
				printProgress(u.Stats, u.Result.State.Sigma)
			}
		case fit.RedrawUpdate:
			if u.Err != nil {
				log.Warnf("redraw: %v", u.Err)
				continue
			}
			log.Debugf("redraw at iteration %d, %d points", u.Stats.Iterations, len(u.Spectrum))
		}
	}

	fmt.Println()
	printProgress(ctrl.Stats(), ctrl.State().Sigma)
	fmt.Println()
}

func report(seed int64, s setup, ctrl *fit.Controller, tracer *archive.Tracer, log *logx.Logger) (Report, error) {
	r := Report{
		Seed:      seed,
		State:     ctrl.State(),
		Stats:     ctrl.Stats(),
		Field:     s.field,
		Trace:     tracer.Points(),
		Empirical: ctrl.Empirical(),
	}
	if r.Empirical != nil {
		ev, err := ctrl.Evaluate()
		if err == nil {
			r.Theoretical = ev.Scaled
			r.Scale = ev.Scale
			if r.State.Sigma == fit.InitialSigma {
				r.State.Sigma = ev.Sigma
			}
			return r, nil
		}
		// Exported unscaled.
		log.Warnf("evaluate best set: %v", err)
	}
	theo, err := ctrl.Redraw()
	if err != nil {
		return Report{}, fmt.Errorf("synthesize: %w", err)
	}
	r.Theoretical = theo
	r.Scale = 1
	return r, nil
}

// statePath adds the codec suffix unless the name already carries one.
func statePath(path, compression string) string {
	if compress.ForPath(path).Name() != "none" {
		return path
	}
	c, err := compress.ByName(compression)
	if err != nil {
		return path
	}
	return path + compress.Suffix(c)
}

func save(cfg Config, r Report, ctrl *fit.Controller, events *state.EventLog) {
	if cfg.XLSXFile != "" {
		if err := SaveToXLSX(cfg.XLSXFile, r); err != nil {
			fmt.Println("xlsx save error:", err)
		} else {
			fmt.Println("xlsx saved:", cfg.XLSXFile)
		}
	}
	if cfg.TSVFile != "" {
		if err := SaveSpectrumTSV(cfg.TSVFile, r); err != nil {
			fmt.Println("tsv save error:", err)
		} else {
			fmt.Println("tsv saved:", cfg.TSVFile)
		}
	}
	if cfg.ArchiveFile != "" {
		a := archive.Archive{
			Created:     time.Now(),
			Empirical:   r.Empirical,
			Theoretical: r.Theoretical,
			Trace:       r.Trace,
		}
		if err := archive.Write(cfg.ArchiveFile, a); err != nil {
			fmt.Println("archive save error:", err)
		} else {
			fmt.Println("archive saved:", cfg.ArchiveFile)
		}
	}
	if cfg.StateFile != "" {
		best := ctrl.State()
		sess := state.Session{
			Radicals:   best.Radicals,
			Points:     best.Points,
			SweepWidth: best.SweepWidth,
			Sigma:      best.Sigma,
			Iterations: r.Stats.Iterations,
			Accepted:   r.Stats.Accepted,
			Failed:     r.Stats.Failed,
			Fitting:    ctrl.Enabled(),
			Empirical:  ctrl.Empirical(),
			Log:        events.Lines(),
		}
		path := statePath(cfg.StateFile, cfg.Compression)
		if err := state.Save(path, sess); err != nil {
			fmt.Println("session save error:", err)
		} else {
			fmt.Println("session saved:", path)
		}
	}
}

func run(cfg Config) error {
	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logx.New(os.Stderr, "esrfit", level)

	s, err := prepare(cfg, log)
	if err != nil {
		return err
	}

	// 乱数 seed（0 なら実行時刻ベース）
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ctrl := fit.NewController(fit.NewState(s.radicals, s.sweep, s.points), rng)
	var events state.EventLog
	if s.empirical != nil {
		if err := ctrl.SetEmpirical(s.empirical); err != nil {
			return err
		}
	}
	if s.resumed != nil {
		ctrl.Resume(s.resumed.Sigma, fit.Stats{
			Iterations: s.resumed.Iterations,
			Accepted:   s.resumed.Accepted,
			Failed:     s.resumed.Failed,
		})
		events.Restore(s.resumed.Log)
	}
	ctrl.SetEnabled(cfg.Fit)

	tracer := archive.NewTracer()
	switch {
	case ctrl.Mode() == fit.Iterating:
		log.Infof("fitting %d radicals, %d points, sweep %g G, seed %d", len(s.radicals), s.points, s.sweep, seed)
		iterate(cfg, ctrl, tracer, &events, log)
	case cfg.Fit:
		log.Warnf("no spectrum loaded, synthesizing only")
	}

	r, err := report(seed, s, ctrl, tracer, log)
	if err != nil {
		return err
	}
	PrintSummary(r)
	PrintRadicalTable("=== radicals (best) ===", r.State.Radicals, cfg.MaxPrint)
	save(cfg, r, ctrl, &events)
	return nil
}

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
