package spectrum

import (
	"fmt"
	"math"

	"github.com/ichijohodaka/esrfit/internal/radical"
)

// MaxStickIndex bounds the stick buffer. A manifold that would need a
// larger index is reported as ErrStickOverflow.
const MaxStickIndex = 1 << 24

// initialSticks caps the first allocation; the buffer grows past it on write.
const initialSticks = 1 << 20

// Sticks is the stick spectrum of one radical before broadening.
// Index 0 is never populated.
type Sticks struct {
	Intensity []float64
	Total     float64 // running total used to normalize the line shapes
	Peak      int     // highest populated index
}

// Lines returns the populated positions in ascending order.
func (s Sticks) Lines() []int {
	var idx []int
	for i := 1; i <= s.Peak && i < len(s.Intensity); i++ {
		if s.Intensity[i] != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// StickSpectrum builds the centered stick spectrum of r for a sweep of
// sweepWidth field units sampled at points positions.
func StickSpectrum(r radical.Radical, sweepWidth float64, points int) (Sticks, error) {
	if err := validateWindow(sweepWidth, points); err != nil {
		return Sticks{}, err
	}
	if err := r.Validate(); err != nil {
		return Sticks{}, invalidf("%v", err)
	}
	s, err := split(r, increment(sweepWidth, points), points)
	if err != nil {
		return Sticks{}, err
	}
	s.center(points)
	return s, nil
}

// split seeds one line at index 1 and splits it by every equivalent
// nucleus of every group.
func split(r radical.Radical, incr float64, points int) (Sticks, error) {
	s := Sticks{
		Intensity: make([]float64, estimateSize(r, incr, points)),
		Total:     1,
		Peak:      1,
	}
	s.Intensity[1] = 1

	for gi, g := range r.Groups {
		offsets, err := groupOffsets(g, incr)
		if err != nil {
			return Sticks{}, overflowf("group %d: %v", gi+1, err)
		}
		if len(offsets) == 0 {
			continue
		}
		for n := 0; n < g.Nuclei(); n++ {
			// High to low: slots written in this pass sit above the
			// cursor and are not split again by the same nucleus.
			for idx := s.Peak; idx > 0; idx-- {
				if s.Intensity[idx] == 0 {
					continue
				}
				for _, off := range offsets {
					dest := idx + off
					if dest > MaxStickIndex {
						return Sticks{}, overflowf("group %d: index %d exceeds %d", gi+1, dest, MaxStickIndex)
					}
					s.grow(dest)
					s.Intensity[dest] += s.Intensity[idx]
					s.Total += s.Intensity[idx]
					if dest > s.Peak {
						s.Peak = dest
					}
				}
			}
			if math.IsInf(s.Total, 0) || math.IsNaN(s.Total) {
				return Sticks{}, overflowf("group %d: total intensity is not finite", gi+1)
			}
		}
	}
	if s.Total == 0 {
		return Sticks{}, &Error{Kind: ErrDegenerateIntensity}
	}
	return s, nil
}

// groupOffsets returns the index offsets k*a/increment for k = 1..2I.
func groupOffsets(g radical.HyperfineGroup, incr float64) ([]int, error) {
	lines := g.Lines() - 1
	if lines <= 0 {
		return nil, nil
	}
	if lines > MaxStickIndex {
		return nil, fmt.Errorf("%d lines per nucleus", lines+1)
	}
	step := math.Abs(g.Coupling.Value) / incr
	offsets := make([]int, lines)
	for k := 1; k <= lines; k++ {
		off, err := toIndex(float64(k) * step)
		if err != nil {
			return nil, err
		}
		offsets[k-1] = off
	}
	return offsets, nil
}

// center moves the populated slots so the pattern sits in the middle of a
// points-wide window. Vacated slots are zeroed.
func (s *Sticks) center(points int) {
	shift := (points - s.Peak) / 2
	switch {
	case shift > 0:
		s.grow(s.Peak + shift)
		for p := s.Peak; p >= 1; p-- {
			s.Intensity[p+shift] = s.Intensity[p]
			s.Intensity[p] = 0
		}
	case shift < 0:
		d := -shift
		for p := 1; p+d <= s.Peak; p++ {
			s.Intensity[p] = s.Intensity[p+d]
			s.Intensity[p+d] = 0
		}
	}
	s.Peak += shift
}

func (s *Sticks) grow(idx int) {
	if idx < len(s.Intensity) {
		return
	}
	n := 2 * len(s.Intensity)
	if n <= idx {
		n = idx + 1
	}
	buf := make([]float64, n)
	copy(buf, s.Intensity)
	s.Intensity = buf
}

// estimateSize is the first guess for the stick buffer, never below points.
func estimateSize(r radical.Radical, incr float64, points int) int {
	est := 1.0
	for _, g := range r.Groups {
		est += math.Abs(g.Coupling.Value) / incr * 2 * g.Spin.Value * float64(g.Nuclei())
	}
	est++
	if math.IsNaN(est) || est < float64(points) {
		return points
	}
	if est > initialSticks {
		return max(points, initialSticks)
	}
	return int(est)
}

// toIndex truncates a non-negative float offset to an index.
func toIndex(x float64) (int, error) {
	if math.IsNaN(x) || x < 0 || x > MaxStickIndex {
		return 0, fmt.Errorf("offset %g is not a valid index", x)
	}
	return int(x), nil
}
