package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Extrema locates the largest and smallest samples of a spectrum.
type Extrema struct {
	MaxIndex int
	Max      float64
	MinIndex int
	Min      float64
}

// FindExtrema returns the extrema of s. An empty s yields the zero value.
func FindExtrema(s []float64) Extrema {
	if len(s) == 0 {
		return Extrema{}
	}
	hi := floats.MaxIdx(s)
	lo := floats.MinIdx(s)
	return Extrema{MaxIndex: hi, Max: s[hi], MinIndex: lo, Min: s[lo]}
}

// SignChanges counts sign changes across s, ignoring exact zeros.
func SignChanges(s []float64) int {
	n := 0
	prev := 0.0
	for _, v := range s {
		if v == 0 {
			continue
		}
		if prev != 0 && math.Signbit(v) != math.Signbit(prev) {
			n++
		}
		prev = v
	}
	return n
}

// Finite reports whether every sample is a finite number.
func Finite(s []float64) bool {
	if floats.HasNaN(s) {
		return false
	}
	for _, v := range s {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
