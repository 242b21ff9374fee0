package spectrum

import (
	"math"

	"github.com/ichijohodaka/esrfit/internal/radical"
)

// gaussFloor skips Gaussian terms too small to matter and keeps denormals
// out of the kernel.
const gaussFloor = 1e-35

// Request describes one synthesis: the species and the field window.
type Request struct {
	Radicals   []radical.Radical
	SweepWidth float64
	Points     int
}

// Synthesize returns the derivative spectrum of every radical in req,
// summed, as Points samples across the sweep. Index 0 is always zero.
// The result depends only on req.
func Synthesize(req Request) ([]float64, error) {
	if err := validateWindow(req.SweepWidth, req.Points); err != nil {
		return nil, err
	}
	out := make([]float64, req.Points)
	incr := increment(req.SweepWidth, req.Points)
	for i, r := range req.Radicals {
		if err := r.Validate(); err != nil {
			return nil, forRadical(invalidf("%v", err), i+1)
		}
		if err := accumulate(out, r, req.SweepWidth, incr); err != nil {
			return nil, forRadical(err, i+1)
		}
	}
	return out, nil
}

func accumulate(out []float64, r radical.Radical, sweep, incr float64) error {
	points := len(out)
	s, err := split(r, incr, points)
	if err != nil {
		return err
	}
	s.center(points)

	lno, err := kernel(r, s.Total, sweep, incr, points)
	if err != nil {
		return err
	}
	convolve(out, lno, s.Intensity)
	return nil
}

// kernel evaluates the derivative pseudo-Voigt line shape of r on the
// sweep grid. Lorentzian and Gaussian widths use different conventions.
func kernel(r radical.Radical, total, sweep, incr float64, points int) ([]float64, error) {
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, &Error{Kind: ErrDegenerateIntensity, Msg: "total intensity must be finite and nonzero"}
	}
	lw := r.LineWidth.Value
	lrtz := r.Lorentzian.Value
	amount := r.Amount.Value
	center := r.Offset.Value

	lno := make([]float64, points)

	t2 := 2 / math.Sqrt(3) * lw
	t1 := -0.02 * t2 * t2 * t2 * amount * lrtz / (total * math.Pi)
	w := -sweep / 2
	for p := 1; p < points; p++ {
		a := w - center
		d := 1 + (t2*t2)*(a*a)
		lno[p] = t1 * a / (d * d)
		w += incr
	}

	t2 = 2 / lw
	t1 = -amount * t2 * t2 * t2 * 0.01 * (100 - lrtz) / (total * math.Sqrt(2*math.Pi))
	w = -sweep / 2
	for p := 1; p < points; p++ {
		a := w - center
		dd := math.Exp(-0.5 * (t2 * t2) * (a * a))
		if dd > gaussFloor {
			lno[p] += t1 * a * dd
		}
		w += incr
	}
	return lno, nil
}

// convolve adds the kernel, placed at every populated stick, into out.
func convolve(out, lno, sticks []float64) {
	points := len(out)
	half := points / 2
	for p := 1; p < points && p < len(sticks); p++ {
		amp := sticks[p]
		if amp == 0 {
			continue
		}
		for i := 1; i < points; i++ {
			d := p - (half - i)
			if d >= 1 && d < points {
				out[d] += lno[i] * amp
			}
		}
	}
}

func increment(sweep float64, points int) float64 {
	return sweep / float64(points-1)
}

func validateWindow(sweep float64, points int) error {
	if points < 2 {
		return invalidf("point count %d, need at least 2", points)
	}
	if math.IsNaN(sweep) || math.IsInf(sweep, 0) || sweep <= 0 {
		return invalidf("sweep width %g must be positive", sweep)
	}
	return nil
}
