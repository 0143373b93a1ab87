package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type CSVOptions struct {
	// BOM prefixes the output with a UTF-8 byte order mark for spreadsheet programs.
	BOM bool
}

// WriteCSV writes t as comma-separated text with a header row. Values use the shortest
// decimal form that parses back to the same float64.
func WriteCSV(w io.Writer, t Table, opts CSVOptions) error {
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{t.LabelHeader, t.ValueHeader}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.Rows {
		if err := cw.Write([]string{r.Label, FormatValue(r.Value)}); err != nil {
			return fmt.Errorf("write row %q: %w", r.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func FormatValue(v float64) string {
	return decimal.NewFromFloat(v).String()
}
