package models

import (
	"encoding/json"
	"math"
	"time"
)

// SalesRecord is one row of the source spreadsheet.
type SalesRecord struct {
	Retailer        string    `json:"retailer"`
	InvoiceDate     time.Time `json:"invoice_date" validate:"required"`
	Region          string    `json:"region"`
	State           string    `json:"state"`
	City            string    `json:"city"`
	Product         string    `json:"product"`
	SalesMethod     string    `json:"sales_method"`
	PriceperUnit    float64   `json:"price_per_unit" validate:"gte=0"`
	UnitsSold       int       `json:"units_sold" validate:"gte=0"`
	TotalSales      float64   `json:"total_sales" validate:"gte=0"`
	OperatingProfit float64   `json:"operating_profit" validate:"gte=0"`
}

// PreparedRecord is a SalesRecord of a filtered working copy with its derived columns attached.
type PreparedRecord struct {
	SalesRecord

	CostPerUnit     float64 `json:"cost_per_unit"`
	GrossProfit     float64 `json:"gross_profit"`
	ProfitMargin    float64 `json:"profit_margin"`
	CumulativeSales float64 `json:"cumulative_sales"`

	Month     int    `json:"month"`
	Quarter   int    `json:"quarter"`
	DayOfWeek int    `json:"day_of_week"`
	MonthYear string `json:"month_year"`
	YearMonth string `json:"year_month"`
}

// DateRange is an inclusive calendar date window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls within [Start, End].
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Empty reports whether the range cannot contain any date.
func (r DateRange) Empty() bool {
	return r.Start.After(r.End)
}

// NullFloat is a float64 that encodes NaN and infinities as JSON null.
type NullFloat float64

func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}

// Valid reports whether f holds a finite number.
func (f NullFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type CategoryTotal struct {
	Category   string  `json:"category"`
	TotalSales float64 `json:"total_sales"`
}

type StateSales struct {
	State      string  `json:"state"`
	TotalSales float64 `json:"total_sales"`
	UnitsSold  int     `json:"units_sold"`
}

type RegionCitySales struct {
	Region     string  `json:"region"`
	City       string  `json:"city"`
	TotalSales float64 `json:"total_sales"`
}

type RegionProfit struct {
	Region          string  `json:"region"`
	OperatingProfit float64 `json:"operating_profit"`
}

type ProductProfitability struct {
	Product         string  `json:"product"`
	TotalSales      float64 `json:"total_sales"`
	OperatingProfit float64 `json:"operating_profit"`
}

// PeriodTotal is one point of a chronological series. Period sorts in time order, Label is for display.
type PeriodTotal struct {
	Period     string  `json:"period"`
	Label      string  `json:"label"`
	TotalSales float64 `json:"total_sales"`
}

type ProductDailySales struct {
	InvoiceDate time.Time `json:"invoice_date"`
	Product     string    `json:"product"`
	TotalSales  float64   `json:"total_sales"`
}

type CumulativePoint struct {
	InvoiceDate     time.Time `json:"invoice_date"`
	CumulativeSales float64   `json:"cumulative_sales"`
}

// OrdinalTotal groups sales by a calendar ordinal (month 1-12, quarter 1-4, weekday 0-6).
type OrdinalTotal struct {
	Ordinal    int     `json:"ordinal"`
	Label      string  `json:"label"`
	TotalSales float64 `json:"total_sales"`
}

// Heatmap is a dense Product x Region matrix; Values[i][j] belongs to Rows[i], Columns[j].
type Heatmap struct {
	Rows    []string    `json:"rows"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// CorrelationMatrix holds pairwise Pearson coefficients in Fields order.
type CorrelationMatrix struct {
	Fields []string      `json:"fields"`
	Values [][]NullFloat `json:"values"`
}

// BoxStats summarizes one group's distribution for a box plot.
type BoxStats struct {
	Group  string    `json:"group"`
	Count  int       `json:"count"`
	Min    NullFloat `json:"min"`
	Q1     NullFloat `json:"q1"`
	Median NullFloat `json:"median"`
	Q3     NullFloat `json:"q3"`
	Max    NullFloat `json:"max"`
}

type KPIs struct {
	RecordCount            int       `json:"record_count"`
	TotalSales             float64   `json:"total_sales"`
	AverageOperatingProfit NullFloat `json:"average_operating_profit"`
	TotalUnitsSold         int       `json:"total_units_sold"`
	AveragePricePerUnit    NullFloat `json:"average_price_per_unit"`
	TotalGrossProfit       float64   `json:"total_gross_profit"`
	AverageProfitMargin    NullFloat `json:"average_profit_margin"`
}
