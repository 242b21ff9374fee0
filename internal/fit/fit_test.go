package fit

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichijohodaka/esrfit/internal/radical"
	"github.com/ichijohodaka/esrfit/internal/spectrum"
)

// constSource always returns the same draw. 0.5 leaves every parameter
// where it is.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

const (
	testSweep  = 100.0
	testPoints = 256
)

func synth(t *testing.T, rads ...radical.Radical) []float64 {
	t.Helper()
	s, err := spectrum.Synthesize(spectrum.Request{Radicals: rads, SweepWidth: testSweep, Points: testPoints})
	require.NoError(t, err)
	return s
}

func target() radical.Radical {
	return radical.New(1.0, 50, 100, 0, radical.Group(0.5, 10, 1))
}

// start is target moved away from the optimum with room to come back.
func start() radical.Radical {
	r := target()
	r.LineWidth = radical.P(1.2, 0.05)
	r.Offset = radical.P(0.5, 0.05)
	r.Groups[0].Coupling = radical.P(10.4, 0.2)
	return r
}

func TestStepAcceptsFirstComputableCandidate(t *testing.T) {
	emp := synth(t, target())
	cur := NewState([]radical.Radical{target()}, testSweep, testPoints)

	res := Step(cur, emp, constSource(0.5))
	require.NoError(t, res.Err)
	assert.True(t, res.Accepted)
	assert.InDelta(t, 0, res.State.Sigma, 1e-9)
	assert.Equal(t, res.CandidateSigma, res.State.Sigma)
	assert.Len(t, res.Spectrum, testPoints)
	assert.Equal(t, InitialSigma, cur.Sigma, "input state must not change")
}

func TestStepRejectsEqualOrWorse(t *testing.T) {
	emp := synth(t, target())
	cur := NewState([]radical.Radical{start()}, testSweep, testPoints)
	cur.Sigma = 0

	res := Step(cur, emp, constSource(0.9))
	require.NoError(t, res.Err)
	assert.False(t, res.Accepted)
	assert.Equal(t, 0.0, res.State.Sigma)
	assert.Equal(t, 1.2, res.State.Radicals[0].LineWidth.Value)
	// The candidate and its spectrum are reported even when rejected.
	require.Len(t, res.Candidate, 1)
	assert.InDelta(t, 1.24, res.Candidate[0].LineWidth.Value, 1e-12)
	assert.Len(t, res.Spectrum, testPoints)
	assert.Greater(t, res.CandidateSigma, 0.0)

	// Equal sigma is not an improvement.
	exact := NewState([]radical.Radical{target()}, testSweep, testPoints)
	first := Step(exact, emp, constSource(0.5))
	require.True(t, first.Accepted)
	again := Step(first.State, emp, constSource(0.5))
	assert.False(t, again.Accepted)
}

func TestStepLengthMismatch(t *testing.T) {
	cur := NewState([]radical.Radical{target()}, testSweep, testPoints)
	res := Step(cur, make([]float64, 10), constSource(0.5))
	require.Error(t, res.Err)
	assert.False(t, res.Accepted)
	assert.Nil(t, res.Spectrum)
	assert.Nil(t, res.Candidate)
	assert.Equal(t, InitialSigma, res.State.Sigma)
}

func TestStepSynthesisFailureIsRejection(t *testing.T) {
	emp := synth(t, target())
	bad := radical.New(0.5, 100, 100, 0, radical.Group(0.5, 1e9, 1))
	cur := NewState([]radical.Radical{bad}, testSweep, testPoints)

	res := Step(cur, emp, constSource(0.5))
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, spectrum.ErrStickOverflow))
	assert.False(t, res.Accepted)
	assert.Nil(t, res.Spectrum)
	assert.Equal(t, InitialSigma, res.State.Sigma)
}

func TestSetEmpiricalRejectsNonFinite(t *testing.T) {
	c := NewController(NewState([]radical.Radical{start()}, testSweep, testPoints), constSource(0.5))
	c.SetEnabled(true)
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		emp := synth(t, target())
		emp[testPoints/2] = bad
		require.ErrorIs(t, c.SetEmpirical(emp), ErrNonFiniteEmpirical)
		assert.Nil(t, c.Empirical())
		assert.Equal(t, Idle, c.Mode())
	}
}

func TestControllerModes(t *testing.T) {
	c := NewController(NewState([]radical.Radical{start()}, testSweep, testPoints), constSource(0.5))
	assert.Equal(t, Idle, c.Mode())

	c.SetEnabled(true)
	assert.Equal(t, Idle, c.Mode(), "no spectrum loaded")
	_, ran := c.Tick()
	assert.False(t, ran)

	require.Error(t, c.SetEmpirical(make([]float64, 7)))
	require.NoError(t, c.SetEmpirical(synth(t, target())))
	assert.Equal(t, Iterating, c.Mode())

	_, ran = c.Tick()
	assert.True(t, ran)
	assert.Equal(t, int64(1), c.Stats().Iterations)

	c.SetEnabled(false)
	assert.Equal(t, Idle, c.Mode())
	c.SetEnabled(true)

	c.SetPoints(128)
	assert.Nil(t, c.Empirical(), "mismatched spectrum is dropped")
	assert.Equal(t, Idle, c.Mode())
	assert.Equal(t, InitialSigma, c.State().Sigma)

	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "iterating", Iterating.String())
}

func TestControllerResetsSigma(t *testing.T) {
	c := NewController(NewState([]radical.Radical{target()}, testSweep, testPoints), constSource(0.5))
	c.SetEnabled(true)
	require.NoError(t, c.SetEmpirical(synth(t, target())))
	res, _ := c.Tick()
	require.True(t, res.Accepted)
	require.Less(t, c.State().Sigma, 1.0)

	c.SetRadicals([]radical.Radical{start()})
	assert.Equal(t, InitialSigma, c.State().Sigma)

	c.Resume(0.25, Stats{Iterations: 40, Accepted: 3})
	assert.Equal(t, 0.25, c.State().Sigma)
	assert.Equal(t, int64(40), c.Stats().Iterations)

	c.SetSweep(120)
	assert.Equal(t, InitialSigma, c.State().Sigma)
}

func TestControllerEvaluate(t *testing.T) {
	c := NewController(NewState([]radical.Radical{start()}, testSweep, testPoints), constSource(0.5))
	_, err := c.Evaluate()
	require.ErrorIs(t, err, ErrNoEmpirical)

	require.NoError(t, c.SetEmpirical(synth(t, target())))
	ev, err := c.Evaluate()
	require.NoError(t, err)
	assert.Greater(t, ev.Sigma, 0.0)
	assert.Equal(t, InitialSigma, c.State().Sigma, "evaluate does not store sigma")
}

func TestControllerSigmaNeverIncreases(t *testing.T) {
	c := NewController(NewState([]radical.Radical{start()}, testSweep, testPoints), rand.New(rand.NewSource(7)))
	c.SetEnabled(true)
	require.NoError(t, c.SetEmpirical(synth(t, target())))

	prev := c.State().Sigma
	for i := 0; i < 300; i++ {
		res, ran := c.Tick()
		require.True(t, ran)
		require.NoError(t, res.Err)
		s := c.State().Sigma
		require.LessOrEqual(t, s, prev)
		if res.Accepted {
			assert.Equal(t, res.CandidateSigma, s)
		}
		prev = s
	}
	st := c.Stats()
	assert.Equal(t, int64(300), st.Iterations)
	assert.Zero(t, st.Failed)
	assert.Positive(t, st.Accepted)
}

func TestFitConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("long random search")
	}
	emp := synth(t, target())

	const runs = 20
	passed := 0
	for seed := int64(1); seed <= runs; seed++ {
		c := NewController(NewState([]radical.Radical{start()}, testSweep, testPoints), rand.New(rand.NewSource(seed)))
		require.NoError(t, c.SetEmpirical(emp))
		before, err := c.Evaluate()
		require.NoError(t, err)

		c.SetEnabled(true)
		for i := 0; i < 5000; i++ {
			c.Tick()
		}
		if c.State().Sigma < 0.1*before.Sigma {
			passed++
		}
	}
	assert.GreaterOrEqual(t, passed, runs-1, "converged in %d of %d runs", passed, runs)
}
