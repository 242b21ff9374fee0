package fit

import (
	"fmt"

	"github.com/ichijohodaka/esrfit/internal/radical"
	"github.com/ichijohodaka/esrfit/internal/randomize"
	"github.com/ichijohodaka/esrfit/internal/residual"
	"github.com/ichijohodaka/esrfit/internal/spectrum"
)

// InitialSigma is larger than any residual a real spectrum produces, so
// the first computable candidate is always accepted.
const InitialSigma = 1e20

// State is the best parameter set found so far and its residual.
type State struct {
	Radicals   []radical.Radical
	Sigma      float64
	Points     int
	SweepWidth float64
}

// NewState returns a state that has not been evaluated yet.
func NewState(rads []radical.Radical, sweepWidth float64, points int) State {
	return State{
		Radicals:   radical.CloneAll(rads),
		Sigma:      InitialSigma,
		Points:     points,
		SweepWidth: sweepWidth,
	}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	c := s
	c.Radicals = radical.CloneAll(s.Radicals)
	return c
}

func (s State) request(rads []radical.Radical) spectrum.Request {
	return spectrum.Request{Radicals: rads, SweepWidth: s.SweepWidth, Points: s.Points}
}

// Result is the outcome of one iteration.
type Result struct {
	State          State     // best state after the iteration
	Candidate      []radical.Radical
	CandidateSigma float64
	Spectrum       []float64 // the candidate's rescaled spectrum, accepted or not
	Accepted       bool
	Err            error // set when the candidate could not be evaluated
}

// Step perturbs cur, synthesizes and scores the candidate, and keeps it only
// if its sigma is strictly lower. A candidate that cannot be evaluated is
// rejected and the reason is reported in Result.Err.
func Step(cur State, empirical []float64, src randomize.Source) Result {
	res := Result{State: cur}
	if len(empirical) != cur.Points {
		res.Err = fmt.Errorf("empirical spectrum has %d points, state expects %d", len(empirical), cur.Points)
		return res
	}

	cand := randomize.Radicals(src, cur.Radicals)
	res.Candidate = cand

	theo, err := spectrum.Synthesize(cur.request(cand))
	if err != nil {
		res.Err = fmt.Errorf("synthesize candidate: %w", err)
		return res
	}
	ev, err := residual.Evaluate(theo, empirical)
	if err != nil {
		res.Err = fmt.Errorf("evaluate candidate: %w", err)
		return res
	}

	res.CandidateSigma = ev.Sigma
	res.Spectrum = ev.Scaled
	if ev.Sigma < cur.Sigma {
		next := cur
		next.Radicals = cand
		next.Sigma = ev.Sigma
		res.State = next
		res.Accepted = true
	}
	return res
}
