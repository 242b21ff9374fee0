// output.go
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ichijohodaka/esrfit/internal/archive"
	"github.com/ichijohodaka/esrfit/internal/fit"
	"github.com/ichijohodaka/esrfit/internal/radical"
	"github.com/ichijohodaka/esrfit/internal/spectrum"
)

func fmt4(x float64) string { return fmt.Sprintf("%10.4g", x) }

// Report は結果表示・ファイル出力に使うものをまとめたもの
type Report struct {
	Seed        int64
	State       fit.State
	Stats       fit.Stats
	Scale       float64
	Field       []float64
	Empirical   []float64 // nil なら実測なし
	Theoretical []float64 // 実測があれば Scale 倍済み
	Trace       []archive.TracePoint
}

// fieldAxis is the field of every point relative to the sweep centre.
func fieldAxis(points int, sweep float64) []float64 {
	out := make([]float64, points)
	if points < 2 {
		return out
	}
	incr := sweep / float64(points-1)
	for i := range out {
		out[i] = float64(i)*incr - sweep/2
	}
	return out
}

func PrintSummary(r Report) {
	var accRatio, failRatio float64
	if r.Stats.Iterations > 0 {
		accRatio = float64(r.Stats.Accepted) / float64(r.Stats.Iterations)
		failRatio = float64(r.Stats.Failed) / float64(r.Stats.Iterations)
	}

	fmt.Printf("\nseed=%d\n", r.Seed)
	fmt.Printf("points=%d  sweep=%s G  radicals=%d\n", r.State.Points, strings.TrimSpace(fmt4(r.State.SweepWidth)), len(r.State.Radicals))
	fmt.Printf("iters=%d  accepted=%d  failed=%d\n", r.Stats.Iterations, r.Stats.Accepted, r.Stats.Failed)
	fmt.Printf("accepted_ratio=%s  failed_ratio=%s\n", fmt4(accRatio), fmt4(failRatio))
	if r.Empirical != nil {
		fmt.Printf("sigma=%s  scale=%s\n", fmt4(r.State.Sigma), fmt4(r.Scale))
	}
	if len(r.Theoretical) > 0 {
		ex := spectrum.FindExtrema(r.Theoretical)
		fmt.Printf("max=%s @%d  min=%s @%d  sign_changes=%d\n",
			fmt4(ex.Max), ex.MaxIndex, fmt4(ex.Min), ex.MinIndex, spectrum.SignChanges(r.Theoretical))
	}
	fmt.Println()
}

func radicalRows(rads []radical.Radical) [][]string {
	var rows [][]string
	for i, r := range rads {
		for _, f := range r.Fields() {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				f.Label,
				fmt4(f.Param.Value),
				fmt4(f.Param.Spread),
			})
		}
	}
	return rows
}

// PrintRadicalTable prints one row per parameter. maxPrint > 0 limits the
// rows shown; files always get all of them.
func PrintRadicalTable(title string, rads []radical.Radical, maxPrint int) {
	fmt.Println(title)
	rows := radicalRows(rads)
	if len(rows) == 0 {
		fmt.Println("(none)")
		return
	}
	hidden := 0
	if maxPrint > 0 && len(rows) > maxPrint {
		hidden = len(rows) - maxPrint
		rows = rows[:maxPrint]
	}

	headers := []string{"No", "param", "value", "spread"}

	// 列幅を決定（ヘッダ or 中身の最大）
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for j, cell := range row {
			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	printLine := func() {
		fmt.Print("+")
		for _, w := range widths {
			fmt.Print(strings.Repeat("-", w+2) + "+")
		}
		fmt.Println()
	}

	printLine()
	fmt.Print("|")
	for i, h := range headers {
		fmt.Printf(" %-*s |", widths[i], h)
	}
	fmt.Println()
	printLine()

	for _, row := range rows {
		fmt.Print("|")
		for j, cell := range row {
			if j == 1 {
				fmt.Printf(" %-*s |", widths[j], cell)
			} else {
				fmt.Printf(" %*s |", widths[j], cell) // 右寄せ
			}
		}
		fmt.Println()
	}
	printLine()
	if hidden > 0 {
		fmt.Printf("(%d more rows in the output files)\n", hidden)
	}
	fmt.Println()
}

func SaveToXLSX(filename string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	// Summary
	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}
	var accRatio float64
	if r.Stats.Iterations > 0 {
		accRatio = float64(r.Stats.Accepted) / float64(r.Stats.Iterations)
	}
	pairs := [][]any{
		{"Key", "Value"},
		{"seed", r.Seed},
		{"points", r.State.Points},
		{"sweep", r.State.SweepWidth},
		{"radicals", len(r.State.Radicals)},
		{"iterations", r.Stats.Iterations},
		{"accepted", r.Stats.Accepted},
		{"failed", r.Stats.Failed},
		{"accepted_ratio", accRatio},
	}
	if r.Empirical != nil {
		pairs = append(pairs, []any{"sigma", r.State.Sigma}, []any{"scale", r.Scale})
	}
	for i, p := range pairs {
		if err := f.SetSheetRow(summary, cellName(1, i+1), &p); err != nil {
			return err
		}
	}

	// Radicals（xlsx は数値のまま保存）
	if _, err := f.NewSheet("Radicals"); err != nil {
		return err
	}
	if err := f.SetSheetRow("Radicals", "A1", &[]any{"No", "param", "value", "spread"}); err != nil {
		return err
	}
	row := 2
	for i, rad := range r.State.Radicals {
		for _, fl := range rad.Fields() {
			vals := []any{i + 1, fl.Name, fl.Param.Value, fl.Param.Spread}
			if err := f.SetSheetRow("Radicals", cellName(1, row), &vals); err != nil {
				return err
			}
			row++
		}
	}

	// Spectrum
	if _, err := f.NewSheet("Spectrum"); err != nil {
		return err
	}
	if err := f.SetSheetRow("Spectrum", "A1", &[]any{"index", "field", "empirical", "theoretical", "residual"}); err != nil {
		return err
	}
	for i, y := range r.Theoretical {
		vals := []any{i + 1, at(r.Field, i), nil, y, nil}
		if r.Empirical != nil {
			vals[2] = r.Empirical[i]
			vals[4] = r.Empirical[i] - y
		}
		if err := f.SetSheetRow("Spectrum", cellName(1, i+2), &vals); err != nil {
			return err
		}
	}

	// Trace
	if len(r.Trace) > 0 {
		if _, err := f.NewSheet("Trace"); err != nil {
			return err
		}
		if err := f.SetSheetRow("Trace", "A1", &[]any{"iteration", "sigma"}); err != nil {
			return err
		}
		for i, p := range r.Trace {
			if err := f.SetSheetRow("Trace", cellName(1, i+2), &[]any{p.Iteration, p.Sigma}); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(filename)
}

func cellName(col, row int) string {
	c, _ := excelize.CoordinatesToCellName(col, row)
	return c
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// SaveSpectrumTSV writes index, field, the recorded spectrum when there is
// one, and the theoretical spectrum.
func SaveSpectrumTSV(filename string, r Report) error {
	if filename == "" {
		return nil
	}

	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()

	w := csv.NewWriter(fp)
	w.Comma = '\t'

	header := []string{"index", "field"}
	if r.Empirical != nil {
		header = append(header, "empirical")
	}
	header = append(header, "theoretical")
	if err := w.Write(header); err != nil {
		return err
	}

	g := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	for i, y := range r.Theoretical {
		row := []string{strconv.Itoa(i + 1), g(at(r.Field, i))}
		if r.Empirical != nil {
			row = append(row, g(r.Empirical[i]))
		}
		row = append(row, g(y))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
