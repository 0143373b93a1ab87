package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	batchSize     = 2000
	maxWorkers    = 8
	headerScanMax = 10
)

const (
	colRetailer        = "Retailer"
	colInvoiceDate     = "InvoiceDate"
	colRegion          = "Region"
	colState           = "State"
	colCity            = "City"
	colProduct         = "Product"
	colSalesMethod     = "SalesMethod"
	colPriceperUnit    = "PriceperUnit"
	colUnitsSold       = "UnitsSold"
	colTotalSales      = "TotalSales"
	colOperatingProfit = "OperatingProfit"
)

// RequiredColumns lists the source columns in their canonical spelling.
var RequiredColumns = []string{
	colRetailer, colInvoiceDate, colRegion, colState, colCity, colProduct,
	colSalesMethod, colPriceperUnit, colUnitsSold, colTotalSales, colOperatingProfit,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"2006/01/02",
}

var validate = validator.New()

// rawSheet is a grid of cell text as read from the source.
type rawSheet struct {
	rows [][]string
	// serialDates is set for spreadsheets, where dates may arrive as Excel serial numbers.
	serialDates bool
}

// Load reads the whole source into an immutable Table. The format follows the file
// extension: .xlsx/.xlsm through excelize, .csv through encoding/csv. Any problem is
// returned as a *LoadError and no partial table is produced.
func Load(ctx context.Context, path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, loadErr(path, err)
	}

	var (
		sheet *rawSheet
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		sheet, err = readXLSX(path)
	case ".csv":
		sheet, err = readCSV(path)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, loadErr(path, err)
	}

	records, err := parseSheet(ctx, path, sheet)
	if err != nil {
		return nil, err
	}

	slog.Debug("dataset parsed", "source", path, "records", len(records))
	return NewTable(path, records), nil
}

func parseSheet(ctx context.Context, source string, sheet *rawSheet) ([]models.SalesRecord, error) {
	if len(sheet.rows) == 0 {
		return nil, loadErr(source, errors.New("source is empty"))
	}

	headerRow, columns, err := locateHeader(sheet.rows)
	if err != nil {
		return nil, &LoadError{Source: source, Row: headerRow + 1, Err: err}
	}

	type sourceRow struct {
		number int
		cells  []string
	}
	body := make([]sourceRow, 0, len(sheet.rows)-headerRow-1)
	for i := headerRow + 1; i < len(sheet.rows); i++ {
		if blankRow(sheet.rows[i]) {
			continue
		}
		body = append(body, sourceRow{number: i + 1, cells: sheet.rows[i]})
	}
	if len(body) == 0 {
		return nil, loadErr(source, errors.New("no data rows"))
	}

	records := make([]models.SalesRecord, len(body))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(body); start += batchSize {
		end := min(start+batchSize, len(body))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return loadErr(source, err)
				}
				rec, err := parseRow(body[i].cells, columns, sheet.serialDates)
				if err != nil {
					err.Source = source
					err.Row = body[i].number
					return err
				}
				records[i] = rec
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// locateHeader finds the first row, among the leading rows, that names every required column.
func locateHeader(rows [][]string) (int, map[string]int, error) {
	if len(rows) == 0 {
		return 0, nil, errors.New("source is empty")
	}

	bestRow, bestMissing := 0, RequiredColumns
	for i := 0; i < len(rows) && i < headerScanMax; i++ {
		index := make(map[string]int, len(rows[i]))
		for j, cell := range rows[i] {
			key := normalizeHeader(cell)
			if _, dup := index[key]; key != "" && !dup {
				index[key] = j
			}
		}

		columns := make(map[string]int, len(RequiredColumns))
		var missing []string
		for _, name := range RequiredColumns {
			if j, ok := index[normalizeHeader(name)]; ok {
				columns[name] = j
			} else {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 {
			return i, columns, nil
		}
		if len(missing) < len(bestMissing) {
			bestRow, bestMissing = i, missing
		}
	}

	return bestRow, nil, fmt.Errorf("missing columns: %s", strings.Join(bestMissing, ", "))
}

func parseRow(cells []string, columns map[string]int, serialDates bool) (models.SalesRecord, *LoadError) {
	cell := func(name string) string {
		j := columns[name]
		if j >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[j])
	}

	rec := models.SalesRecord{
		Retailer:    cell(colRetailer),
		Region:      cell(colRegion),
		State:       cell(colState),
		City:        cell(colCity),
		Product:     cell(colProduct),
		SalesMethod: cell(colSalesMethod),
	}

	var err error
	if rec.InvoiceDate, err = parseDate(cell(colInvoiceDate), serialDates); err != nil {
		return rec, &LoadError{Column: colInvoiceDate, Err: err}
	}
	if rec.PriceperUnit, err = parseNumber(cell(colPriceperUnit)); err != nil {
		return rec, &LoadError{Column: colPriceperUnit, Err: err}
	}
	if rec.UnitsSold, err = parseCount(cell(colUnitsSold)); err != nil {
		return rec, &LoadError{Column: colUnitsSold, Err: err}
	}
	if rec.TotalSales, err = parseNumber(cell(colTotalSales)); err != nil {
		return rec, &LoadError{Column: colTotalSales, Err: err}
	}
	if rec.OperatingProfit, err = parseNumber(cell(colOperatingProfit)); err != nil {
		return rec, &LoadError{Column: colOperatingProfit, Err: err}
	}

	if err := validate.Struct(rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return rec, &LoadError{Column: fe.Field(), Err: fmt.Errorf("value %v fails %q", fe.Value(), fe.Tag())}
		}
		return rec, &LoadError{Err: err}
	}

	return rec, nil
}

func parseDate(s string, serial bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if serial {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			t, err := excelize.ExcelDateToTime(f, false)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid serial date %q: %w", s, err)
			}
			return calendarDate(t), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseNumber(s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if clean == "" {
		return 0, errors.New("empty number")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}

func parseCount(s string) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int(v), nil
}

// normalizeHeader folds case and drops everything but letters and digits, so
// "Price per Unit" and "PriceperUnit" name the same column.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
