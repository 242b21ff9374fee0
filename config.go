// config.go
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ichijohodaka/esrfit/internal/compress"
	"github.com/ichijohodaka/esrfit/internal/logx"
	"github.com/ichijohodaka/esrfit/internal/radical"
)

// Config は「ユーザー設定」をまとめたもの
type Config struct {
	ConfigFile   string            `yaml:"-"`
	SpectrumFile string            `yaml:"spectrum"` // .txt .asc .dat .xlsx
	Sheet        string            `yaml:"sheet"`    // xlsx のシート名（"" なら先頭）
	ParamsFile   string            `yaml:"params"`   // .sim .json .esrafel[.zst|.s2|.lz4]
	Radicals     []radical.Radical `yaml:"radicals"`
	SweepWidth   float64           `yaml:"sweep"`  // 0 なら spectrum の磁場列から決める
	Points       int               `yaml:"points"` // spectrum を読んだらその長さになる
	MaxIters     int64             `yaml:"max_iters"`
	PrintEvery   int64             `yaml:"print_every"`
	RedrawEvery  int64             `yaml:"redraw_every"`
	Interval     time.Duration     `yaml:"interval"`
	Seed         int64             `yaml:"seed"` // 0 なら実行時刻ベース
	Fit          bool              `yaml:"fit"`
	MaxPrint     int               `yaml:"max_print"`
	XLSXFile     string            `yaml:"xlsx"`    // "" なら保存しない
	TSVFile      string            `yaml:"tsv"`     // "" なら保存しない
	ArchiveFile  string            `yaml:"archive"` // "" なら保存しない
	StateFile    string            `yaml:"state"`   // "" なら保存しない
	Compression  string            `yaml:"state_compression"`
	LogLevel     string            `yaml:"log_level"`

	// flags given on the command line
	explicit map[string]bool
}

// LocalOverride is installed by config_local.go to tweak the defaults
// without editing this file.
var LocalOverride func(*Config)

// ============================================================
// ユーザー設定（ここから）
// ============================================================

func DefaultConfig() Config {
	return Config{
		Radicals:    []radical.Radical{radical.VarProbe()},
		SweepWidth:  0,
		Points:      1024,
		MaxIters:    100_000,
		PrintEvery:  1_000,
		RedrawEvery: 0,
		Interval:    0,
		Seed:        0,
		Fit:         true,
		MaxPrint:    20,
		Compression: "none",
		LogLevel:    "info",
	}
}

// ============================================================
// ユーザー設定（ここまで）
// ============================================================

// LoadYAML overlays the keys present in the file onto c.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("esrfit", flag.ContinueOnError)
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "YAML config file")
	fs.StringVar(&c.SpectrumFile, "spectrum", c.SpectrumFile, "recorded spectrum (.txt .asc .dat .xlsx)")
	fs.StringVar(&c.Sheet, "sheet", c.Sheet, "worksheet of an xlsx spectrum (default first)")
	fs.StringVar(&c.ParamsFile, "params", c.ParamsFile, "radical parameters (.sim .json) or a saved session (.esrafel)")
	fs.Float64Var(&c.SweepWidth, "sweep", c.SweepWidth, "sweep width in gauss (0 = from the spectrum, else 100)")
	fs.IntVar(&c.Points, "points", c.Points, "points per spectrum")
	fs.Int64Var(&c.MaxIters, "max-iters", c.MaxIters, "iterations to run (0 = until Ctrl-C)")
	fs.Int64Var(&c.PrintEvery, "print-every", c.PrintEvery, "progress line interval in iterations (0 = off)")
	fs.Int64Var(&c.RedrawEvery, "redraw-every", c.RedrawEvery, "redraw the best spectrum every n iterations (0 = off)")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "pause between iterations")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed (0 = time based)")
	fs.BoolVar(&c.Fit, "fit", c.Fit, "run the fit; false only synthesizes and exports")
	fs.IntVar(&c.MaxPrint, "max-print", c.MaxPrint, "rows of the parameter table printed (0 = all)")
	fs.StringVar(&c.XLSXFile, "xlsx", c.XLSXFile, "xlsx report file")
	fs.StringVar(&c.TSVFile, "tsv", c.TSVFile, "tsv spectrum file")
	fs.StringVar(&c.ArchiveFile, "archive", c.ArchiveFile, "mebo archive of spectra and sigma trace")
	fs.StringVar(&c.StateFile, "state", c.StateFile, "session file to save")
	fs.StringVar(&c.Compression, "state-compression", c.Compression, "session compression: none, zstd, s2, lz4")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	return fs
}

// loadConfig applies defaults, LocalOverride, the YAML file and the
// command line, in that order, and validates the result.
func loadConfig(args []string, stderr io.Writer) (Config, error) {
	cfg := DefaultConfig()
	if LocalOverride != nil {
		LocalOverride(&cfg)
	}

	// First pass only finds -config; the YAML goes under the flags.
	probe := cfg
	fs := probe.flagSet()
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		fs = cfg.flagSet()
		fs.SetOutput(stderr)
		return Config{}, fs.Parse(args)
	}
	if probe.ConfigFile != "" {
		if err := cfg.LoadYAML(probe.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	fs = cfg.flagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	cfg.explicit = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { cfg.explicit[f.Name] = true })

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Explicit reports whether name was given on the command line.
func (c Config) Explicit(name string) bool { return c.explicit[name] }

func (c Config) Validate() error {
	if c.Points < 2 {
		return fmt.Errorf("points must be >= 2")
	}
	if math.IsNaN(c.SweepWidth) || math.IsInf(c.SweepWidth, 0) || c.SweepWidth < 0 {
		return fmt.Errorf("sweep must be >= 0")
	}
	if c.MaxIters < 0 {
		return fmt.Errorf("max-iters must be >= 0")
	}
	if c.PrintEvery < 0 {
		return fmt.Errorf("print-every must be >= 0")
	}
	if c.RedrawEvery < 0 {
		return fmt.Errorf("redraw-every must be >= 0")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be >= 0")
	}
	if c.MaxPrint < 0 {
		return fmt.Errorf("max-print must be >= 0")
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := compress.ByName(c.Compression); err != nil {
		return err
	}
	if c.ParamsFile == "" && len(c.Radicals) == 0 {
		return fmt.Errorf("no radicals: set radicals in the config or give -params")
	}
	return radical.ValidateAll(c.Radicals)
}
