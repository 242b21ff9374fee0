package specio

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads (index, field, intensity) rows from a worksheet, the first
// one when sheet is empty.
func ReadXLSX(path, sheet string) (Spectrum, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Spectrum{}, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Spectrum{}, fmt.Errorf("%s: %w", path, ErrEmpty)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Spectrum{}, fmt.Errorf("%s: %w", path, err)
	}

	var s Spectrum
	for i, row := range rows {
		if len(row) != 3 {
			continue
		}
		if err := s.addRow(row); err != nil {
			return Spectrum{}, fmt.Errorf("%s: %s row %d: %w", path, sheet, i+1, err)
		}
	}
	if s.Len() == 0 {
		return Spectrum{}, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return s, nil
}
