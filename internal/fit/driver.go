package fit

import (
	"context"
	"errors"
	"time"

	"github.com/ichijohodaka/esrfit/internal/logx"
)

var ErrStopped = errors.New("driver stopped")

type UpdateKind int

const (
	StepUpdate UpdateKind = iota
	RedrawUpdate
)

// Update is what the driver reports after each tick. Step updates carry
// the iteration result; redraw updates carry a display-only synthesis of
// the best parameter set.
type Update struct {
	Kind     UpdateKind
	Result   Result
	Spectrum []float64
	Stats    Stats
	Err      error
}

// Driver runs a Controller in its own goroutine on a fixed cadence and
// reports through a channel. Changes to the controller while the driver
// runs go through Do so the controller keeps a single writer.
type Driver struct {
	ctrl        *Controller
	interval    time.Duration
	redrawEvery int64
	maxIters    int64
	log         *logx.Logger

	cmds chan func(*Controller)
	done chan struct{}
}

type DriverOption func(*Driver)

// WithInterval sets the tick cadence. Zero runs iterations back to back.
func WithInterval(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.interval = d }
}

// WithRedrawEvery emits a redraw update every n iterations. Zero disables it.
func WithRedrawEvery(n int64) DriverOption {
	return func(dr *Driver) { dr.redrawEvery = n }
}

// WithMaxIterations stops the driver once the controller has run n
// iterations in total. Zero means no limit.
func WithMaxIterations(n int64) DriverOption {
	return func(dr *Driver) { dr.maxIters = n }
}

func WithLogger(l *logx.Logger) DriverOption {
	return func(dr *Driver) { dr.log = l }
}

func NewDriver(ctrl *Controller, opts ...DriverOption) *Driver {
	d := &Driver{
		ctrl: ctrl,
		log:  logx.Discard(),
		cmds: make(chan func(*Controller)),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Do runs f on the driver goroutine between two iterations.
func (d *Driver) Do(ctx context.Context, f func(*Controller)) error {
	select {
	case d.cmds <- f:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the loop. The channel is closed when ctx is cancelled or the
// iteration limit is reached; after that the controller may be used
// directly again. Run must be called at most once.
func (d *Driver) Run(ctx context.Context) <-chan Update {
	out := make(chan Update, 1)
	go func() {
		defer close(out)
		defer close(d.done)
		d.loop(ctx, out)
	}()
	return out
}

func (d *Driver) loop(ctx context.Context, out chan<- Update) {
	var tick <-chan time.Time
	if d.interval > 0 {
		t := time.NewTicker(d.interval)
		defer t.Stop()
		tick = t.C
	}

	send := func(u Update) bool {
		select {
		case out <- u:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		if d.maxIters > 0 && d.ctrl.Stats().Iterations >= d.maxIters {
			d.log.Infof("iteration limit %d reached", d.maxIters)
			return
		}

		switch {
		case tick != nil:
			select {
			case <-ctx.Done():
				return
			case f := <-d.cmds:
				f(d.ctrl)
				continue
			case <-tick:
			}
		case d.ctrl.Mode() != Iterating:
			// Nothing to do until a command changes the mode.
			select {
			case <-ctx.Done():
				return
			case f := <-d.cmds:
				f(d.ctrl)
				continue
			}
		default:
			select {
			case <-ctx.Done():
				return
			case f := <-d.cmds:
				f(d.ctrl)
				continue
			default:
			}
		}

		res, ran := d.ctrl.Tick()
		if !ran {
			continue
		}
		stats := d.ctrl.Stats()
		switch {
		case res.Err != nil:
			d.log.Debugf("iteration %d rejected: %v", stats.Iterations, res.Err)
		case res.Accepted:
			d.log.Debugf("iteration %d accepted, sigma %.6g", stats.Iterations, res.State.Sigma)
		}
		if !send(Update{Kind: StepUpdate, Result: res, Stats: stats, Err: res.Err}) {
			return
		}

		if d.redrawEvery > 0 && stats.Iterations%d.redrawEvery == 0 {
			s, err := d.ctrl.Redraw()
			if !send(Update{Kind: RedrawUpdate, Spectrum: s, Stats: stats, Err: err}) {
				return
			}
		}
	}
}
