package fit

import (
	"errors"
	"fmt"

	"github.com/ichijohodaka/esrfit/internal/radical"
	"github.com/ichijohodaka/esrfit/internal/randomize"
	"github.com/ichijohodaka/esrfit/internal/residual"
	"github.com/ichijohodaka/esrfit/internal/spectrum"
)

var (
	ErrNoEmpirical        = errors.New("no empirical spectrum loaded")
	ErrNonFiniteEmpirical = errors.New("empirical spectrum has non-finite samples")
)

// Mode is the controller state.
type Mode int

const (
	Idle Mode = iota
	Iterating
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Iterating:
		return "iterating"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Stats counts iterations since the controller was created.
type Stats struct {
	Iterations int64
	Accepted   int64
	Failed     int64
}

// Controller owns a fit session: the best state, the recorded spectrum and
// the enabled switch. It iterates only when a spectrum is loaded and
// fitting is enabled. It is not safe for concurrent use.
//
// Unlike the esrafel GUI, changing the radicals, sweep or point count
// resets sigma to InitialSigma instead of keeping the old value.
type Controller struct {
	state     State
	empirical []float64
	enabled   bool
	src       randomize.Source
	stats     Stats
}

func NewController(state State, src randomize.Source) *Controller {
	return &Controller{state: state.Clone(), src: src}
}

func (c *Controller) Mode() Mode {
	if c.enabled && c.empirical != nil {
		return Iterating
	}
	return Idle
}

// State returns a copy of the best state.
func (c *Controller) State() State { return c.state.Clone() }

func (c *Controller) Stats() Stats { return c.stats }

func (c *Controller) Enabled() bool { return c.enabled }

func (c *Controller) SetEnabled(on bool) { c.enabled = on }

// Empirical returns the loaded spectrum, nil when none is loaded.
func (c *Controller) Empirical() []float64 { return c.empirical }

// SetEmpirical loads a recorded spectrum. Its length must match the
// configured point count and every sample must be finite.
func (c *Controller) SetEmpirical(s []float64) error {
	if len(s) != c.state.Points {
		return fmt.Errorf("empirical spectrum has %d points, expected %d", len(s), c.state.Points)
	}
	if !spectrum.Finite(s) {
		return ErrNonFiniteEmpirical
	}
	c.empirical = append([]float64(nil), s...)
	c.state.Sigma = InitialSigma
	return nil
}

func (c *Controller) ClearEmpirical() { c.empirical = nil }

// SetRadicals replaces the parameter set wholesale and forgets the old sigma.
func (c *Controller) SetRadicals(rads []radical.Radical) {
	c.state.Radicals = radical.CloneAll(rads)
	c.state.Sigma = InitialSigma
}

func (c *Controller) SetSweep(width float64) {
	c.state.SweepWidth = width
	c.state.Sigma = InitialSigma
}

// SetPoints changes the point count. A loaded spectrum of a different
// length is dropped, which puts the controller back to Idle.
func (c *Controller) SetPoints(n int) {
	c.state.Points = n
	c.state.Sigma = InitialSigma
	if c.empirical != nil && len(c.empirical) != n {
		c.empirical = nil
	}
}

// Tick runs one iteration when the controller is Iterating. The boolean
// reports whether an iteration ran.
func (c *Controller) Tick() (Result, bool) {
	if c.Mode() != Iterating {
		return Result{}, false
	}
	res := Step(c.state, c.empirical, c.src)
	c.stats.Iterations++
	switch {
	case res.Err != nil:
		c.stats.Failed++
	case res.Accepted:
		c.stats.Accepted++
		c.state = res.State
	}
	res.State = c.state.Clone()
	return res, true
}

// Redraw synthesizes the current best set for display.
func (c *Controller) Redraw() ([]float64, error) {
	return spectrum.Synthesize(c.state.request(c.state.Radicals))
}

// Evaluate scores the current best set against the loaded spectrum without
// perturbing it or touching the stored sigma.
func (c *Controller) Evaluate() (residual.Result, error) {
	if c.empirical == nil {
		return residual.Result{}, ErrNoEmpirical
	}
	theo, err := c.Redraw()
	if err != nil {
		return residual.Result{}, err
	}
	return residual.Evaluate(theo, c.empirical)
}

// Resume restores the sigma and counters of a saved session. Call it after
// SetEmpirical, which forgets the old sigma.
func (c *Controller) Resume(sigma float64, stats Stats) {
	c.state.Sigma = sigma
	c.stats = stats
}
