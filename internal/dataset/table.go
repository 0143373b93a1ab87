package dataset

import (
	"math"
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

// CostRatio is the assumed unit cost as a share of the unit price.
const CostRatio = 0.7

// Table is the immutable base dataset. Nothing handed out by a Table aliases its storage.
type Table struct {
	source   string
	records  []models.SalesRecord
	loadedAt time.Time
}

func NewTable(source string, records []models.SalesRecord) *Table {
	return &Table{
		source:   source,
		records:  slices.Clone(records),
		loadedAt: time.Now(),
	}
}

func (t *Table) Source() string {
	return t.source
}

func (t *Table) Len() int {
	return len(t.records)
}

func (t *Table) LoadedAt() time.Time {
	return t.loadedAt
}

// Records returns a copy of every row in source order.
func (t *Table) Records() []models.SalesRecord {
	return slices.Clone(t.records)
}

// Filter returns a fresh slice of the rows whose InvoiceDate lies in r, in source order.
// An inverted range yields an empty, non-nil slice.
func (t *Table) Filter(r models.DateRange) []models.SalesRecord {
	out := make([]models.SalesRecord, 0)
	if r.Empty() {
		return out
	}
	for _, rec := range t.records {
		if r.Contains(rec.InvoiceDate) {
			out = append(out, rec)
		}
	}
	return out
}

// DateSpan returns the earliest and latest invoice dates.
func (t *Table) DateSpan() (first, last time.Time, ok bool) {
	if len(t.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = t.records[0].InvoiceDate, t.records[0].InvoiceDate
	for _, rec := range t.records[1:] {
		if rec.InvoiceDate.Before(first) {
			first = rec.InvoiceDate
		}
		if rec.InvoiceDate.After(last) {
			last = rec.InvoiceDate
		}
	}
	return first, last, true
}

// Derive attaches the calculated columns to a filtered working copy. Rows keep their input
// order; CumulativeSales is accumulated in InvoiceDate order with ties in input order.
func Derive(records []models.SalesRecord) []models.PreparedRecord {
	out := make([]models.PreparedRecord, len(records))
	for i, rec := range records {
		cost := rec.PriceperUnit * CostRatio
		out[i] = models.PreparedRecord{
			SalesRecord:  rec,
			CostPerUnit:  cost,
			GrossProfit:  rec.TotalSales - float64(rec.UnitsSold)*cost,
			ProfitMargin: ProfitMargin(rec.OperatingProfit, rec.TotalSales),
			Month:        int(rec.InvoiceDate.Month()),
			Quarter:      (int(rec.InvoiceDate.Month())-1)/3 + 1,
			DayOfWeek:    (int(rec.InvoiceDate.Weekday()) + 6) % 7,
			MonthYear:    MonthYearLabel(rec.InvoiceDate),
			YearMonth:    rec.InvoiceDate.Format("2006-01"),
		}
	}

	order := ChronologicalOrder(records)
	running := 0.0
	for _, idx := range order {
		running += out[idx].TotalSales
		out[idx].CumulativeSales = running
	}

	return out
}

// ChronologicalOrder returns row indexes sorted by InvoiceDate, stable on ties.
func ChronologicalOrder(records []models.SalesRecord) []int {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return records[a].InvoiceDate.Compare(records[b].InvoiceDate)
	})
	return order
}

// ProfitMargin is operating profit as a percentage of sales, NaN when there were no sales.
func ProfitMargin(operatingProfit, totalSales float64) float64 {
	if totalSales == 0 {
		return math.NaN()
	}
	return operatingProfit / totalSales * 100
}

// MonthYearLabel formats d the way the dashboard axis shows it, e.g. Jan'21.
func MonthYearLabel(d time.Time) string {
	return d.Format("Jan'06")
}
