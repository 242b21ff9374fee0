// Package residual compares a theoretical spectrum with a recorded one.
//
// The theoretical spectrum is first rescaled to the amplitude of the
// recorded one, then sigma, the root-mean-square difference, is computed.
// Index 0 of both spectra is left out of every sum.
package residual

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrLengthMismatch = errors.New("spectrum length mismatch")
	ErrTooShort       = errors.New("spectrum too short")
	ErrNonFinite      = errors.New("non-finite residual")
)

// Result is the outcome of one evaluation.
type Result struct {
	Sigma  float64
	Scale  float64
	Scaled []float64 // theoretical spectrum times Scale
}

// Evaluate rescales theoretical against empirical and returns sigma.
// Neither input is modified.
func Evaluate(theoretical, empirical []float64) (Result, error) {
	n := len(empirical)
	if len(theoretical) != n {
		return Result{}, fmt.Errorf("%w: theoretical %d, empirical %d", ErrLengthMismatch, len(theoretical), n)
	}
	if n < 2 {
		return Result{}, fmt.Errorf("%w: %d points", ErrTooShort, n)
	}

	var sumSq, sumCross float64
	for i := 1; i < n; i++ {
		sumSq += theoretical[i] * theoretical[i]
		sumCross += math.Abs(empirical[i]) * math.Abs(theoretical[i])
	}
	scale := 0.0
	if sumSq != 0 {
		scale = sumCross / sumSq
	}
	if !finite(scale) {
		return Result{}, fmt.Errorf("%w: scale %g", ErrNonFinite, scale)
	}

	scaled := make([]float64, n)
	copy(scaled, theoretical)
	floats.Scale(scale, scaled[1:])

	sigma := floats.Distance(empirical[1:], scaled[1:], 2) / math.Sqrt(float64(n-1))
	if !finite(sigma) {
		return Result{}, fmt.Errorf("%w: sigma %g", ErrNonFinite, sigma)
	}
	return Result{Sigma: sigma, Scale: scale, Scaled: scaled}, nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
