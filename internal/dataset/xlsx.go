package dataset

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the first sheet that carries the sales header row.
func readXLSX(path string) (*rawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	var first [][]string
	for i, name := range sheets {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if i == 0 {
			first = rows
		}
		if _, _, err := locateHeader(rows); err == nil {
			return &rawSheet{rows: rows, serialDates: true}, nil
		}
	}

	// No sheet matched; hand back the first so the header error names what is missing.
	return &rawSheet{rows: first, serialDates: true}, nil
}
