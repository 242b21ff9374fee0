// Package archive stores the spectra and the sigma trace of a run as a
// mebo numeric blob. Spectra are keyed by point index and the trace by
// iteration number, both in the timestamp column.
package archive

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/arloliu/mebo"
	"github.com/arloliu/mebo/blob"
	"github.com/arloliu/mebo/format"
)

const (
	metricEmpirical   = "empirical"
	metricTheoretical = "theoretical"
	metricSigma       = "sigma"
)

// MaxSeries is the longest series one metric can hold.
const MaxSeries = 65535

var (
	ErrEmpty    = errors.New("archive has no data")
	ErrTooLarge = errors.New("series too long for archive")
)

// TracePoint is the best sigma after an iteration.
type TracePoint struct {
	Iteration int64
	Sigma     float64
}

type Archive struct {
	Created     time.Time
	Empirical   []float64
	Theoretical []float64
	Trace       []TracePoint
}

// Encode packs a into a blob with delta timestamps and Gorilla values.
func Encode(a Archive) ([]byte, error) {
	if len(a.Empirical) == 0 && len(a.Theoretical) == 0 && len(a.Trace) == 0 {
		return nil, ErrEmpty
	}
	created := a.Created
	if created.IsZero() {
		created = time.Now()
	}
	enc, err := mebo.NewNumericEncoder(created,
		blob.WithTimestampEncoding(format.TypeDelta),
		blob.WithValueEncoding(format.TypeGorilla),
		blob.WithValueCompression(format.CompressionZstd),
	)
	if err != nil {
		return nil, err
	}

	if err := addSpectrum(enc, metricEmpirical, a.Empirical); err != nil {
		return nil, err
	}
	if err := addSpectrum(enc, metricTheoretical, a.Theoretical); err != nil {
		return nil, err
	}
	if n := len(a.Trace); n > 0 {
		if n > MaxSeries {
			return nil, fmt.Errorf("%w: %s has %d points", ErrTooLarge, metricSigma, n)
		}
		ts := make([]int64, n)
		vals := make([]float64, n)
		for i, p := range a.Trace {
			ts[i] = p.Iteration
			vals[i] = p.Sigma
		}
		if err := addSeries(enc, metricSigma, ts, vals); err != nil {
			return nil, err
		}
	}
	return enc.Finish()
}

func addSpectrum(enc *blob.NumericEncoder, name string, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	if len(s) > MaxSeries {
		return fmt.Errorf("%w: %s has %d points", ErrTooLarge, name, len(s))
	}
	ts := make([]int64, len(s))
	for i := range ts {
		ts[i] = int64(i)
	}
	return addSeries(enc, name, ts, s)
}

func addSeries(enc *blob.NumericEncoder, name string, ts []int64, vals []float64) error {
	if err := enc.StartMetricName(name, len(vals)); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := enc.AddDataPoints(ts, vals, nil); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := enc.EndMetric(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func Decode(data []byte) (Archive, error) {
	dec, err := mebo.NewNumericDecoder(data)
	if err != nil {
		return Archive{}, fmt.Errorf("open archive: %w", err)
	}
	b, err := dec.Decode()
	if err != nil {
		return Archive{}, fmt.Errorf("decode archive: %w", err)
	}

	a := Archive{Created: b.StartTime()}
	if b.HasMetricName(metricEmpirical) {
		a.Empirical = collect(b, metricEmpirical)
	}
	if b.HasMetricName(metricTheoretical) {
		a.Theoretical = collect(b, metricTheoretical)
	}
	if b.HasMetricName(metricSigma) {
		a.Trace = make([]TracePoint, 0, b.LenByName(metricSigma))
		for _, dp := range b.AllByName(metricSigma) {
			a.Trace = append(a.Trace, TracePoint{Iteration: dp.Ts, Sigma: dp.Val})
		}
	}
	return a, nil
}

func collect(b blob.NumericBlob, name string) []float64 {
	out := make([]float64, 0, b.LenByName(name))
	for v := range b.AllValuesByName(name) {
		out = append(out, v)
	}
	return out
}

func Write(path string, a Archive) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Read(path string) (Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Archive{}, err
	}
	return Decode(data)
}
