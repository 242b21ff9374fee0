package specio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ichijohodaka/esrfit/internal/radical"
)

const instrumentExport = `index            Field [G]         Intensity []
1              3262.75      4600.7724609375
2     3262.81842619746      5483.7724609375
3     3262.88685239492      1550.7724609375
4     3262.95527859238       -22.2275390625
`

func TestReadASCII(t *testing.T) {
	s, err := ReadASCII(strings.NewReader(instrumentExport))
	require.NoError(t, err)
	assert.Equal(t, []float64{4600.7724609375, 5483.7724609375, 1550.7724609375, -22.2275390625}, s.Intensity)
	assert.Equal(t, 3262.75, s.Field[0])
	assert.InDelta(t, 0.20527859238, s.SweepWidth(), 1e-9)
}

func TestReadASCIISkipsNonDataLines(t *testing.T) {
	in := "index field intensity\n# sweep 100 G\n\n1 10 0.5\nmodulation 1.0\n2 11 -0.5\n"
	s, err := ReadASCII(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.5}, s.Intensity)
}

func TestReadASCIIErrors(t *testing.T) {
	_, err := ReadASCII(strings.NewReader("1 10 0.5\n2 11 oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadASCII(strings.NewReader("just a header line\n"))
	require.ErrorIs(t, err, ErrEmpty)
}

func TestReadASCIIRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line string
	}{
		{"nan intensity", "1 -50 0.1\n2 -49.9 NaN\n3 -49.8 0.2\n", "line 2"},
		{"inf intensity", "1 -50 0.1\n2 -49.9 0.3\n3 -49.8 +Inf\n", "line 3"},
		{"inf field", "1 -Inf 0.1\n", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadASCII(strings.NewReader(tt.in))
			require.ErrorIs(t, err, ErrNonFinite)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "recorded.txt")
	require.NoError(t, os.WriteFile(txt, []byte(instrumentExport), 0o644))
	s, err := Load(txt)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())

	_, err = Load(filepath.Join(dir, "recorded.json"))
	require.ErrorIs(t, err, ErrFormat)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Spectrum"))
	require.NoError(t, f.SetSheetRow("Spectrum", "A1", &[]any{"index", "field", "intensity"}))
	require.NoError(t, f.SetSheetRow("Spectrum", "A2", &[]any{1, 3300.0, 0.25}))
	require.NoError(t, f.SetSheetRow("Spectrum", "A3", &[]any{2, 3300.5, -0.75}))
	path := filepath.Join(t.TempDir(), "recorded.xlsx")
	require.NoError(t, f.SaveAs(path))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, -0.75}, s.Intensity)
	assert.Equal(t, 0.5, s.SweepWidth())

	_, err = ReadXLSX(path, "Missing")
	require.Error(t, err)

	require.NoError(t, f.SetSheetRow("Spectrum", "A4", &[]any{3, 3301.0, "NaN"}))
	require.NoError(t, f.SaveAs(path))
	_, err = ReadXLSX(path, "")
	require.ErrorIs(t, err, ErrNonFinite)
	assert.Contains(t, err.Error(), "row 4")
}

const simFile = `2
1024
100
100
0
0.5
100
1
1
1
14

50
1.5
0.8
50
2
2
0.5
3.2
6
0.5
0.9
`

func TestParseSim(t *testing.T) {
	f, err := ParseSim(strings.NewReader(simFile))
	require.NoError(t, err)
	assert.Equal(t, 1024, f.Points)
	assert.Equal(t, 100.0, f.SweepWidth)
	require.Len(t, f.Radicals, 2)

	assert.Equal(t, radical.Probe(), f.Radicals[0])

	r := f.Radicals[1]
	assert.Equal(t, 50.0, r.Amount.Value)
	assert.Equal(t, 1.5, r.Offset.Value)
	assert.Equal(t, 0.8, r.LineWidth.Value)
	assert.Equal(t, 50.0, r.Lorentzian.Value)
	require.Len(t, r.Groups, 2)
	assert.Equal(t, radical.Group(0.5, 3.2, 2), r.Groups[0])
	assert.Equal(t, radical.Group(0.5, 0.9, 6), r.Groups[1])
	assert.False(t, r.LineWidth.Tunable())
}

func TestParseSimErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"truncated", "1\n1024\n100\n100\n", "line 4: radical 1 offset"},
		{"not a number", "1\n1024\nwide\n", "line 3: sweep"},
		{"fractional count", "1.5\n", "radical count must be a non-negative integer"},
		{"negative spin", "1\n8\n10\n1\n0\n1\n0\n1\n1\n-1\n2\n", "negative spin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSim(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
