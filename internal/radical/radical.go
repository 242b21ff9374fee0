// Package radical holds the parameter model of a simulated paramagnetic
// species: tunable parameters, groups of equivalent nuclei and the radical
// that owns them.
package radical

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalid = errors.New("invalid radical")

// Param is a tunable quantity. Spread is the half-width of the uniform
// window the randomizer draws from; a zero Spread holds the value fixed.
type Param struct {
	Value  float64 `json:"val" yaml:"value"`
	Spread float64 `json:"var" yaml:"spread"`
}

// P returns a parameter with the given value and spread.
func P(value, spread float64) Param { return Param{Value: value, Spread: spread} }

// Fixed returns a parameter that never moves during a fit.
func Fixed(value float64) Param { return Param{Value: value} }

func (p Param) Tunable() bool { return p.Spread != 0 }

// HyperfineGroup is one set of magnetically equivalent nuclei.
// Count is stored as a float but only its integer part is used.
type HyperfineGroup struct {
	Spin     Param `json:"spin" yaml:"spin"`
	Coupling Param `json:"hpf" yaml:"coupling"`
	Count    Param `json:"eqs" yaml:"count"`
}

// Group returns a hyperfine group with fixed spin and count.
func Group(spin, coupling, count float64) HyperfineGroup {
	return HyperfineGroup{
		Spin:     Fixed(spin),
		Coupling: Fixed(coupling),
		Count:    Fixed(count),
	}
}

// Lines returns the number of lines a single nucleus of this group splits
// a resonance into, 2I+1.
func (g HyperfineGroup) Lines() int {
	return int(2*g.Spin.Value) + 1
}

// Nuclei returns the number of equivalent nuclei, truncated toward zero.
func (g HyperfineGroup) Nuclei() int {
	if g.Count.Value <= 0 {
		return 0
	}
	return int(g.Count.Value)
}

// Radical is one simulated species.
type Radical struct {
	LineWidth  Param            `json:"lwa" yaml:"line_width"`
	Lorentzian Param            `json:"lrtz" yaml:"lorentzian"` // percent, 0..100
	Amount     Param            `json:"amount" yaml:"amount"`
	Offset     Param            `json:"dh1" yaml:"offset"`
	Groups     []HyperfineGroup `json:"nucs" yaml:"groups"`
}

// New returns a radical with fixed line-shape parameters and the given groups.
func New(lineWidth, lorentzian, amount, offset float64, groups ...HyperfineGroup) Radical {
	return Radical{
		LineWidth:  Fixed(lineWidth),
		Lorentzian: Fixed(lorentzian),
		Amount:     Fixed(amount),
		Offset:     Fixed(offset),
		Groups:     groups,
	}
}

// Electron is a radical without nuclei: a single Lorentzian line.
func Electron() Radical {
	return New(0.5, 100, 100, 0)
}

// Probe is a nitroxide-like test radical.
func Probe() Radical {
	return New(0.5, 100, 100, 0, Group(1, 14, 1))
}

// VarProbe is Probe with every tunable field free to move.
func VarProbe() Radical {
	r := New(0.5, 100, 100, 0, Group(1, 19, 1))
	r.Groups[0].Coupling.Spread = 1
	r.LineWidth.Spread = 0.1
	r.Offset.Spread = 0.1
	r.Lorentzian.Spread = 0.1
	r.Amount.Spread = 0.1
	return r
}

// Clone returns a deep copy so the groups slice is not shared.
func (r Radical) Clone() Radical {
	c := r
	if r.Groups != nil {
		c.Groups = make([]HyperfineGroup, len(r.Groups))
		copy(c.Groups, r.Groups)
	}
	return c
}

// CloneAll deep-copies a radical set.
func CloneAll(rads []Radical) []Radical {
	if rads == nil {
		return nil
	}
	out := make([]Radical, len(rads))
	for i, r := range rads {
		out[i] = r.Clone()
	}
	return out
}

// Validate rejects values the synthesizer cannot give a meaning to.
func (r Radical) Validate() error {
	for _, f := range r.Fields() {
		if !finite(f.Param.Value) || !finite(f.Param.Spread) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalid, f.Name)
		}
	}
	for i, g := range r.Groups {
		if g.Count.Value < 0 {
			return fmt.Errorf("%w: group %d: negative nucleus count %g", ErrInvalid, i+1, g.Count.Value)
		}
		if g.Spin.Value < 0 {
			return fmt.Errorf("%w: group %d: negative spin %g", ErrInvalid, i+1, g.Spin.Value)
		}
	}
	return nil
}

// ValidateAll validates every radical of a set.
func ValidateAll(rads []Radical) error {
	for i, r := range rads {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("radical %d: %w", i+1, err)
		}
	}
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
