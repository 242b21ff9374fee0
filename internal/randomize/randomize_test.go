package randomize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichijohodaka/esrfit/internal/radical"
)

// fixedSource replays a list of draws.
type fixedSource struct {
	draws []float64
	n     int
}

func (f *fixedSource) Float64() float64 {
	v := f.draws[f.n%len(f.draws)]
	f.n++
	return v
}

func TestParamBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := radical.P(3.5, 0.25)
	for range 10_000 {
		q := Param(rng, p)
		require.LessOrEqual(t, math.Abs(q.Value-p.Value), p.Spread)
		require.Equal(t, p.Spread, q.Spread)
	}
}

func TestParamFixedNeverMoves(t *testing.T) {
	src := &fixedSource{draws: []float64{0.9}}
	p := radical.Fixed(7)
	for range 10_000 {
		require.Equal(t, p, Param(src, p))
	}
	assert.Zero(t, src.n, "a fixed parameter must not consume draws")
}

func TestParamEndpoints(t *testing.T) {
	p := radical.P(10, 2)
	assert.Equal(t, 8.0, Param(&fixedSource{draws: []float64{0}}, p).Value)
	assert.Equal(t, 10.0, Param(&fixedSource{draws: []float64{0.5}}, p).Value)
}

func TestRadicalDrawOrder(t *testing.T) {
	r := radical.Radical{
		LineWidth:  radical.P(1, 1),
		Lorentzian: radical.P(50, 1),
		Amount:     radical.P(100, 1),
		Offset:     radical.P(0, 1),
		Groups: []radical.HyperfineGroup{
			{Spin: radical.P(0.5, 1), Coupling: radical.P(10, 1), Count: radical.P(1, 1)},
		},
	}
	// width, amount, lorentzian, offset, coupling
	src := &fixedSource{draws: []float64{1, 0.75, 0.25, 0.5, 0}}
	got := Radical(src, r)

	assert.Equal(t, 5, src.n)
	assert.Equal(t, 2.0, got.LineWidth.Value)
	assert.Equal(t, 100.5, got.Amount.Value)
	assert.Equal(t, 49.5, got.Lorentzian.Value)
	assert.Equal(t, 0.0, got.Offset.Value)
	assert.Equal(t, 9.0, got.Groups[0].Coupling.Value)
	assert.Equal(t, 0.5, got.Groups[0].Spin.Value, "spin is structural")
	assert.Equal(t, 1.0, got.Groups[0].Count.Value, "count is structural")
}

func TestRadicalDoesNotMutateInput(t *testing.T) {
	r := radical.VarProbe()
	before := r.Clone()
	rng := rand.New(rand.NewSource(1))
	for range 100 {
		_ = Radicals(rng, []radical.Radical{r})
	}
	assert.Equal(t, before, r)
}

func TestSanitizeClamps(t *testing.T) {
	tests := []struct {
		name string
		in   radical.Radical
		want radical.Radical
	}{
		{"negative width", radical.New(-5, 50, 100, 0), radical.New(0, 50, 100, 0)},
		{"lorentzian above range", radical.New(1, 150, 100, 0), radical.New(1, 100, 100, 0)},
		{"lorentzian below range", radical.New(1, -3, 100, 0), radical.New(1, 0, 100, 0)},
		{"negative amount", radical.New(1, 50, -1, 0), radical.New(1, 50, 0, 0)},
		{"negative offset is fine", radical.New(1, 50, 100, -4), radical.New(1, 50, 100, -4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestRadicalSanitizesFixedValues(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	got := Radical(rng, radical.New(-5, 150, 100, 0))
	assert.Equal(t, 0.0, got.LineWidth.Value)
	assert.Equal(t, 100.0, got.Lorentzian.Value)
}

func TestRadicalsSeededReproducible(t *testing.T) {
	rads := []radical.Radical{radical.VarProbe(), radical.VarProbe()}
	a := Radicals(rand.New(rand.NewSource(99)), rads)
	b := Radicals(rand.New(rand.NewSource(99)), rads)
	assert.Equal(t, a, b)
	assert.NotEqual(t, rads[0].LineWidth.Value, a[0].LineWidth.Value)
}
