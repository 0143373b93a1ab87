// Package export serializes the downloadable aggregate tables.
package export

import (
	"fmt"

	"sales-dashboard/internal/models"
)

// Dataset names a downloadable table.
type Dataset string

const (
	RetailerSales Dataset = "retailer-sales"
	MonthlySales  Dataset = "monthly-sales"
)

// Format is a download file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Table is a two-column label/value table ready to serialize.
type Table struct {
	Name        string
	LabelHeader string
	ValueHeader string
	Rows        []Row
}

type Row struct {
	Label string
	Value float64
}

func ParseDataset(s string) (Dataset, error) {
	switch d := Dataset(s); d {
	case RetailerSales, MonthlySales:
		return d, nil
	default:
		return "", fmt.Errorf("unknown dataset %q", s)
	}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Filename is the attachment name offered to the browser, e.g. RetailerSales.csv.
func (d Dataset) Filename(f Format) string {
	base := "RetailerSales"
	if d == MonthlySales {
		base = "MonthlySales"
	}
	return base + "." + string(f)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// RetailerTable builds the Retailer,TotalSales table.
func RetailerTable(rows []models.CategoryTotal) Table {
	t := Table{Name: "RetailerSales", LabelHeader: "Retailer", ValueHeader: "TotalSales", Rows: make([]Row, len(rows))}
	for i, r := range rows {
		t.Rows[i] = Row{Label: r.Category, Value: r.TotalSales}
	}
	return t
}

// MonthlyTable builds the MonthYear,TotalSales table in chronological order.
func MonthlyTable(rows []models.PeriodTotal) Table {
	t := Table{Name: "MonthlySales", LabelHeader: "MonthYear", ValueHeader: "TotalSales", Rows: make([]Row, len(rows))}
	for i, r := range rows {
		t.Rows[i] = Row{Label: r.Label, Value: r.TotalSales}
	}
	return t
}
