package specio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrFormat    = errors.New("unknown spectrum format")
	ErrEmpty     = errors.New("no data rows")
	// ErrNonFinite marks a NaN or infinite sample.
	ErrNonFinite = errors.New("non-finite value")
)

// Spectrum is a recorded trace. Field may be empty when the source has no
// field column.
type Spectrum struct {
	Field     []float64
	Intensity []float64
}

func (s Spectrum) Len() int { return len(s.Intensity) }

// SweepWidth is the field span covered by the trace, 0 when unknown.
func (s Spectrum) SweepWidth() float64 {
	if len(s.Field) < 2 {
		return 0
	}
	return math.Abs(s.Field[len(s.Field)-1] - s.Field[0])
}

// ReadASCII reads whitespace separated (index, field, intensity) rows.
// A three-cell row that is entirely non-numeric is taken as a header.
func ReadASCII(r io.Reader) (Spectrum, error) {
	var s Spectrum
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		cols := strings.Fields(sc.Text())
		if len(cols) != 3 {
			continue
		}
		if err := s.addRow(cols); err != nil {
			return Spectrum{}, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return Spectrum{}, err
	}
	if s.Len() == 0 {
		return Spectrum{}, ErrEmpty
	}
	return s, nil
}

func (s *Spectrum) addRow(cols []string) error {
	field, ferr := strconv.ParseFloat(cols[1], 64)
	intensity, ierr := strconv.ParseFloat(cols[2], 64)
	_, xerr := strconv.ParseFloat(cols[0], 64)
	if ferr != nil && ierr != nil && xerr != nil {
		return nil
	}
	if ferr != nil {
		return fmt.Errorf("field %q: %w", cols[1], ferr)
	}
	if ierr != nil {
		return fmt.Errorf("intensity %q: %w", cols[2], ierr)
	}
	if !finite(field) {
		return fmt.Errorf("field %q: %w", cols[1], ErrNonFinite)
	}
	if !finite(intensity) {
		return fmt.Errorf("intensity %q: %w", cols[2], ErrNonFinite)
	}
	s.Field = append(s.Field, field)
	s.Intensity = append(s.Intensity, intensity)
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Load reads a spectrum, choosing the reader from the file extension.
func Load(path string) (Spectrum, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, "")
	case ".txt", ".asc", ".dat":
		f, err := os.Open(path)
		if err != nil {
			return Spectrum{}, err
		}
		defer f.Close()
		s, err := ReadASCII(f)
		if err != nil {
			return Spectrum{}, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	default:
		return Spectrum{}, fmt.Errorf("%w: %s", ErrFormat, path)
	}
}
