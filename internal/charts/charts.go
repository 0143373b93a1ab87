// Package charts renders aggregate tables as standalone SVG documents.
package charts

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sales-dashboard/internal/models"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 360

	// EmptyMessage is shown in place of a chart when there is nothing to plot.
	EmptyMessage = "No data for the selected date range"
)

var (
	barColor  = drawing.ColorFromHex("1f77b4")
	lineColor = drawing.ColorFromHex("d62728")
)

type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	return s
}

type renderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// render draws c as SVG, falling back to the empty state if go-chart rejects the data.
func render(title string, size Size, c renderer) string {
	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		slog.Debug("chart render failed", "chart", title, "error", err)
		return Empty(title, size)
	}
	return buf.String()
}

// Empty is the placeholder SVG for a chart without data.
func Empty(title string, size Size) string {
	size = size.orDefault()
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" class="chart-empty">`+
		`<text x="%d" y="28" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`+
		`<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="13" fill="#888">%s</text>`+
		`</svg>`,
		size.Width, size.Height, size.Width, size.Height,
		size.Width/2, html.EscapeString(title),
		size.Width/2, size.Height/2, EmptyMessage)
}

// Bar draws one bar per value. Values that are all zero render the empty state.
func Bar(title string, values []chart.Value, size Size) string {
	size = size.orDefault()
	if !anyNonZero(values) {
		return Empty(title, size)
	}

	barWidth := (size.Width - 120) / len(values) * 2 / 3
	barWidth = max(8, min(60, barWidth))

	xStyle := chart.Style{FontSize: 9}
	if len(values) > 6 {
		xStyle.TextRotationDegrees = 45
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		XAxis:      xStyle,
		YAxis:      chart.YAxis{ValueFormatter: currencyTick, Range: zeroBased(barHeights(values))},
		Bars:       values,
	}
	return render(title, size, &bc)
}

// Pie draws each value as a share of the total.
func Pie(title string, values []chart.Value, size Size) string {
	size = size.orDefault()
	if !anyNonZero(values) {
		return Empty(title, size)
	}

	pc := chart.PieChart{
		Title:  title,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	return render(title, size, &pc)
}

// TimeLine draws a single time series. Fewer than two points render the empty state.
func TimeLine(title string, xs []time.Time, ys []float64, size Size) string {
	size = size.orDefault()
	if len(xs) < 2 || len(xs) != len(ys) {
		return Empty(title, size)
	}
	yRange := zeroBased(ys)
	if yRange.Min == yRange.Max {
		return Empty(title, size)
	}

	c := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("Jan'06")},
		YAxis:      chart.YAxis{ValueFormatter: currencyTick, Range: yRange},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    title,
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: lineColor, StrokeWidth: 2},
			},
		},
	}
	return render(title, size, &c)
}

// zeroBased spans the values and zero, so a single bar or a flat line still has a height.
func zeroBased(values []float64) *chart.ContinuousRange {
	r := &chart.ContinuousRange{}
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		r.Min = math.Min(r.Min, v)
		r.Max = math.Max(r.Max, v)
	}
	return r
}

func barHeights(values []chart.Value) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.Value
	}
	return out
}

func anyNonZero(values []chart.Value) bool {
	for _, v := range values {
		if v.Value != 0 && !math.IsNaN(v.Value) {
			return true
		}
	}
	return false
}

// currencyTick abbreviates axis values, e.g. $1.2M.
func currencyTick(v any) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	abs := math.Abs(f)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.1fB", f/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.1fM", f/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.0fK", f/1e3)
	default:
		return fmt.Sprintf("$%.0f", f)
	}
}

func barValues(labels []string, values []float64) []chart.Value {
	out := make([]chart.Value, len(labels))
	for i := range labels {
		out[i] = chart.Value{
			Label: labels[i],
			Value: values[i],
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}
	return out
}

func CategoryBars(title string, rows []models.CategoryTotal, size Size) string {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.Category, r.TotalSales
	}
	return Bar(title, barValues(labels, values), size)
}

func ProfitBars(title string, rows []models.RegionProfit, size Size) string {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.Region, r.OperatingProfit
	}
	return Bar(title, barValues(labels, values), size)
}

func OrdinalBars(title string, rows []models.OrdinalTotal, size Size) string {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.Label, r.TotalSales
	}
	return Bar(title, barValues(labels, values), size)
}

func PeriodBars(title string, rows []models.PeriodTotal, size Size) string {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.Label, r.TotalSales
	}
	return Bar(title, barValues(labels, values), size)
}

func CategoryPie(title string, rows []models.CategoryTotal, size Size) string {
	values := make([]chart.Value, len(rows))
	for i, r := range rows {
		values[i] = chart.Value{Label: r.Category, Value: r.TotalSales}
	}
	return Pie(title, values, size)
}

// TrendLine plots monthly totals. Periods that are not YYYY-MM are skipped.
func TrendLine(title string, rows []models.PeriodTotal, size Size) string {
	xs := make([]time.Time, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse("2006-01", r.Period)
		if err != nil {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, r.TotalSales)
	}
	return TimeLine(title, xs, ys, size)
}

func CumulativeLine(title string, points []models.CumulativePoint, size Size) string {
	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.InvoiceDate, p.CumulativeSales
	}
	return TimeLine(title, xs, ys, size)
}

// ProductLines draws one daily sales line per product. Products with a single day of sales
// are left out.
func ProductLines(title string, rows []models.ProductDailySales, size Size) string {
	size = size.orDefault()

	var order []string
	byProduct := make(map[string]*chart.TimeSeries)
	var all []float64
	for _, r := range rows {
		s, ok := byProduct[r.Product]
		if !ok {
			s = &chart.TimeSeries{Name: r.Product}
			byProduct[r.Product] = s
			order = append(order, r.Product)
		}
		s.XValues = append(s.XValues, r.InvoiceDate)
		s.YValues = append(s.YValues, r.TotalSales)
		all = append(all, r.TotalSales)
	}

	series := make([]chart.Series, 0, len(order))
	for i, name := range order {
		s := byProduct[name]
		if len(s.XValues) < 2 {
			continue
		}
		s.Style = chart.Style{StrokeColor: chart.GetDefaultColor(i), StrokeWidth: 1.5}
		series = append(series, *s)
	}
	yRange := zeroBased(all)
	if len(series) == 0 || yRange.Min == yRange.Max {
		return Empty(title, size)
	}

	c := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("Jan'06")},
		YAxis:      chart.YAxis{ValueFormatter: currencyTick, Range: yRange},
		Series:     series,
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}
	return render(title, size, &c)
}
