// Package randomize perturbs radical parameters inside their declared
// spreads and clamps the results back into their physical ranges.
package randomize

import (
	"github.com/ichijohodaka/esrfit/internal/radical"
)

// Source is a uniform random source on [0, 1). *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Param returns p moved uniformly within ±Spread. A fixed parameter is
// returned unchanged and consumes no draw.
func Param(src Source, p radical.Param) radical.Param {
	if p.Spread == 0 {
		return p
	}
	u := src.Float64()
	return radical.Param{Value: p.Value + (2*u-1)*p.Spread, Spread: p.Spread}
}

// Radical returns a perturbed, sanitized copy of r. Spin and nucleus count
// are structural and never move.
func Radical(src Source, r radical.Radical) radical.Radical {
	c := r.Clone()
	c.LineWidth = Param(src, c.LineWidth)
	c.Amount = Param(src, c.Amount)
	c.Lorentzian = Param(src, c.Lorentzian)
	c.Offset = Param(src, c.Offset)
	for i := range c.Groups {
		c.Groups[i].Coupling = Param(src, c.Groups[i].Coupling)
	}
	return Sanitize(c)
}

// Radicals perturbs every radical of a set, in order.
func Radicals(src Source, rads []radical.Radical) []radical.Radical {
	out := make([]radical.Radical, len(rads))
	for i, r := range rads {
		out[i] = Radical(src, r)
	}
	return out
}

// Sanitize clamps line width and amount to >= 0 and the Lorentzian
// fraction to [0, 100].
func Sanitize(r radical.Radical) radical.Radical {
	if r.LineWidth.Value < 0 {
		r.LineWidth.Value = 0
	}
	if r.Amount.Value < 0 {
		r.Amount.Value = 0
	}
	if r.Lorentzian.Value < 0 {
		r.Lorentzian.Value = 0
	}
	if r.Lorentzian.Value > 100 {
		r.Lorentzian.Value = 100
	}
	return r
}
