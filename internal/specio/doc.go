// Package specio reads recorded spectra and legacy parameter files.
//
// A spectrum file is a table of (index, field, intensity) rows, either as
// whitespace separated text or in a workbook. Rows that do not have exactly
// three cells are ignored, which skips headers and instrument comments.
//
// A .sim file is the older one-value-per-line parameter format:
//
//	radicals
//	points
//	sweep
//	then per radical: amount, offset, line width, lorentzian %, groups
//	then per group:   count, spin, coupling
package specio
