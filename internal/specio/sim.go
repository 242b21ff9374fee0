package specio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ichijohodaka/esrfit/internal/radical"
)

// SimFile is the content of a legacy .sim parameter file. Every value it
// carries is fixed; spreads have to be set afterwards.
type SimFile struct {
	Points     int
	SweepWidth float64
	Radicals   []radical.Radical
}

type simReader struct {
	sc   *bufio.Scanner
	line int
}

// next returns the next non-blank line parsed as a float.
func (r *simReader) next(what string) (float64, error) {
	for r.sc.Scan() {
		r.line++
		t := strings.TrimSpace(r.sc.Text())
		if t == "" {
			continue
		}
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: %s: %w", r.line, what, err)
		}
		return v, nil
	}
	if err := r.sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("line %d: %s: %w", r.line, what, io.ErrUnexpectedEOF)
}

func (r *simReader) count(what string) (int, error) {
	v, err := r.next(what)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("line %d: %s must be a non-negative integer, got %g", r.line, what, v)
	}
	return int(v), nil
}

func ParseSim(in io.Reader) (SimFile, error) {
	r := &simReader{sc: bufio.NewScanner(in)}

	nrad, err := r.count("radical count")
	if err != nil {
		return SimFile{}, err
	}
	var f SimFile
	if f.Points, err = r.count("points"); err != nil {
		return SimFile{}, err
	}
	if f.SweepWidth, err = r.next("sweep"); err != nil {
		return SimFile{}, err
	}

	for i := 0; i < nrad; i++ {
		var amount, offset, lw, lrtz float64
		for _, v := range []struct {
			dst  *float64
			what string
		}{
			{&amount, "amount"},
			{&offset, "offset"},
			{&lw, "line width"},
			{&lrtz, "lorentzian"},
		} {
			if *v.dst, err = r.next(fmt.Sprintf("radical %d %s", i+1, v.what)); err != nil {
				return SimFile{}, err
			}
		}
		ngroups, err := r.count(fmt.Sprintf("radical %d group count", i+1))
		if err != nil {
			return SimFile{}, err
		}
		var groups []radical.HyperfineGroup
		for g := 0; g < ngroups; g++ {
			prefix := fmt.Sprintf("radical %d group %d", i+1, g+1)
			count, err := r.count(prefix + " count")
			if err != nil {
				return SimFile{}, err
			}
			spin, err := r.next(prefix + " spin")
			if err != nil {
				return SimFile{}, err
			}
			coupling, err := r.next(prefix + " coupling")
			if err != nil {
				return SimFile{}, err
			}
			groups = append(groups, radical.Group(spin, coupling, float64(count)))
		}
		f.Radicals = append(f.Radicals, radical.New(lw, lrtz, amount, offset, groups...))
	}
	if err := radical.ValidateAll(f.Radicals); err != nil {
		return SimFile{}, err
	}
	return f, nil
}

func LoadSim(path string) (SimFile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return SimFile{}, err
	}
	defer fh.Close()
	f, err := ParseSim(fh)
	if err != nil {
		return SimFile{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
