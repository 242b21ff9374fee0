package archive

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	emp := make([]float64, 1024)
	theo := make([]float64, 1024)
	for i := range emp {
		x := float64(i-512) / 40
		emp[i] = -x * math.Exp(-x*x)
		theo[i] = 0.98 * emp[i]
	}
	a := Archive{
		Created:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Empirical:   emp,
		Theoretical: theo,
		Trace:       []TracePoint{{1, 3.5}, {8, 1.25}, {40, 0.5}},
	}

	path := filepath.Join(t.TempDir(), "run.mebo")
	require.NoError(t, Write(path, a))
	got, err := Read(path)
	require.NoError(t, err)

	assert.True(t, a.Created.Equal(got.Created))
	assert.Equal(t, emp, got.Empirical)
	assert.Equal(t, theo, got.Theoretical)
	assert.Equal(t, a.Trace, got.Trace)
}

func TestPartialArchive(t *testing.T) {
	data, err := Encode(Archive{Theoretical: []float64{0, 1, 0, -1}})
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Nil(t, got.Empirical)
	assert.Nil(t, got.Trace)
	assert.Equal(t, []float64{0, 1, 0, -1}, got.Theoretical)
}

func TestEncodeRejects(t *testing.T) {
	_, err := Encode(Archive{})
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Encode(Archive{Empirical: make([]float64, MaxSeries+1)})
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = Decode([]byte("not a blob"))
	require.Error(t, err)
}

func TestTracerSkipsRepeats(t *testing.T) {
	tr := NewTracer()
	tr.Observe(1, 5)
	tr.Observe(2, 5)
	tr.Observe(3, 4)
	tr.Observe(4, 4)
	assert.Equal(t, []TracePoint{{1, 5}, {3, 4}}, tr.Points())
}

func TestTracerCompacts(t *testing.T) {
	tr := NewTracer()
	for i := int64(0); i < MaxSeries+10; i++ {
		tr.Observe(i, float64(MaxSeries-i))
	}
	pts := tr.Points()
	assert.LessOrEqual(t, len(pts), MaxSeries)
	assert.Equal(t, int64(0), pts[0].Iteration)
	for i := 1; i < len(pts); i++ {
		assert.Less(t, pts[i-1].Iteration, pts[i].Iteration)
		assert.Greater(t, pts[i-1].Sigma, pts[i].Sigma)
	}
	// Everything after the compaction sits on the doubled stride.
	last := pts[len(pts)-1]
	assert.Zero(t, last.Iteration%2)
}
