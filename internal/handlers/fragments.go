package handlers

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type chartSection struct {
	templates.Section
	render func(*services.Report, charts.Size) string
}

var chartSections = []chartSection{
	{templates.Section{ID: "chart-retailer", Title: "Total Sales by Retailer"}, func(r *services.Report, s charts.Size) string {
		return charts.CategoryBars("Total Sales by Retailer", r.SalesByRetailer, s)
	}},
	{templates.Section{ID: "chart-region", Title: "Total Sales by Region"}, func(r *services.Report, s charts.Size) string {
		return charts.CategoryBars("Total Sales by Region", r.SalesByRegion, s)
	}},
	{templates.Section{ID: "chart-top-products", Title: "Top 5 Products by Sales"}, func(r *services.Report, s charts.Size) string {
		return charts.CategoryBars("Top 5 Products by Sales", r.TopProducts, s)
	}},
	{templates.Section{ID: "chart-method", Title: "Sales by Sales Method"}, func(r *services.Report, s charts.Size) string {
		return charts.CategoryPie("Sales by Sales Method", r.SalesByMethod, s)
	}},
	{templates.Section{ID: "chart-month-year", Title: "Total Sales by Month-Year"}, func(r *services.Report, s charts.Size) string {
		return charts.PeriodBars("Total Sales by Month-Year", r.SalesByMonthYear, s)
	}},
	{templates.Section{ID: "chart-trend", Title: "Sales Trend Over Time"}, func(r *services.Report, s charts.Size) string {
		return charts.TrendLine("Sales Trend Over Time", r.SalesTrend, s)
	}},
	{templates.Section{ID: "chart-product-trend", Title: "Product Sales Trend"}, func(r *services.Report, s charts.Size) string {
		return charts.ProductLines("Product Sales Trend", r.ProductSalesTrend, s)
	}},
	{templates.Section{ID: "chart-profit-region", Title: "Operating Profit by Region"}, func(r *services.Report, s charts.Size) string {
		return charts.ProfitBars("Operating Profit by Region", r.ProfitByRegion, s)
	}},
	{templates.Section{ID: "chart-calendar-month", Title: "Sales by Month"}, func(r *services.Report, s charts.Size) string {
		return charts.OrdinalBars("Sales by Month", r.SalesByCalendarMonth, s)
	}},
	{templates.Section{ID: "chart-quarter", Title: "Sales by Quarter"}, func(r *services.Report, s charts.Size) string {
		return charts.OrdinalBars("Sales by Quarter", r.SalesByQuarter, s)
	}},
	{templates.Section{ID: "chart-weekday", Title: "Sales by Day of Week"}, func(r *services.Report, s charts.Size) string {
		return charts.OrdinalBars("Sales by Day of Week", r.SalesByDayOfWeek, s)
	}},
	{templates.Section{ID: "chart-cumulative", Title: "Cumulative Sales Over Time"}, func(r *services.Report, s charts.Size) string {
		return charts.CumulativeLine("Cumulative Sales Over Time", r.CumulativeSales, s)
	}},
}

type tableSection struct {
	templates.Section
	tmpl *template.Template
	data func(*services.Report) any
}

const heatLevels = 5

var funcs = template.FuncMap{
	"money": services.FormatCurrency,
	"count": services.FormatCount,
	"pct":   func(v models.NullFloat) string { return services.FormatPercent(float64(v)) },
	"corr":  formatCorrelation,
}

func formatCorrelation(v models.NullFloat) string {
	if !v.Valid() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", float64(v))
}

func mustTable(name, body string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(body))
}

var (
	kpiTemplate = mustTable("kpis", `<div id="kpis" class="kpi-grid">
{{range .}}<div class="kpi-card" id="kpi-{{.ID}}"><span class="kpi-label">{{.Label}}</span><span class="kpi-value">{{.Value}}</span></div>
{{end}}</div>`)

	stateTemplate = mustTable("state", `<div id="table-state">
<table class="modern-table">
<thead><tr><th>State</th><th>Total Sales</th><th>Units Sold</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.State}}</td><td>{{money .TotalSales}}</td><td>{{count .UnitsSold}}</td></tr>
{{else}}<tr><td colspan="3" class="empty">No data for the selected date range</td></tr>
{{end}}</tbody>
</table>
</div>`)

	regionCityTemplate = mustTable("region-city", `<div id="table-region-city">
<table class="modern-table">
<thead><tr><th>Region</th><th>City</th><th>Total Sales</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Region}}</td><td>{{.City}}</td><td>{{money .TotalSales}}</td></tr>
{{else}}<tr><td colspan="3" class="empty">No data for the selected date range</td></tr>
{{end}}</tbody>
</table>
</div>`)

	productProfitTemplate = mustTable("product-profit", `<div id="table-product-profit">
<table class="modern-table">
<thead><tr><th>Product</th><th>Total Sales</th><th>Operating Profit</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Product}}</td><td>{{money .TotalSales}}</td><td>{{money .OperatingProfit}}</td></tr>
{{else}}<tr><td colspan="3" class="empty">No data for the selected date range</td></tr>
{{end}}</tbody>
</table>
</div>`)

	matrixTemplate = mustTable("matrix", `<div id="{{.ID}}">
{{if .Rows}}<table class="modern-table matrix">
<thead><tr><th>{{.Corner}}</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><th>{{.Label}}</th>{{range .Cells}}<td class="heat-{{.Level}}">{{.Text}}</td>{{end}}</tr>
{{end}}</tbody>
</table>{{else}}<p class="empty">No data for the selected date range</p>{{end}}
</div>`)

	marginTemplate = mustTable("margin", `<div id="table-margin">
<table class="modern-table">
<thead><tr><th>Region</th><th>Rows</th><th>Min</th><th>Q1</th><th>Median</th><th>Q3</th><th>Max</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Group}}</td><td>{{.Count}}</td><td>{{pct .Min}}</td><td>{{pct .Q1}}</td><td>{{pct .Median}}</td><td>{{pct .Q3}}</td><td>{{pct .Max}}</td></tr>
{{else}}<tr><td colspan="7" class="empty">No data for the selected date range</td></tr>
{{end}}</tbody>
</table>
</div>`)
)

type matrixCell struct {
	Text  string
	Level int
}

type matrixRow struct {
	Label string
	Cells []matrixCell
}

type matrixView struct {
	ID      string
	Corner  string
	Columns []string
	Rows    []matrixRow
}

// level buckets |v|/scale into 0..heatLevels for the cell shading class.
func level(v, scale float64) int {
	if scale <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Min(1, math.Abs(v)/scale) * heatLevels))
}

func heatmapView(h models.Heatmap) matrixView {
	peak := 0.0
	for _, row := range h.Values {
		for _, v := range row {
			peak = math.Max(peak, v)
		}
	}

	view := matrixView{ID: "table-heatmap", Corner: "Product / Region", Columns: h.Columns}
	for i, label := range h.Rows {
		row := matrixRow{Label: label}
		for _, v := range h.Values[i] {
			row.Cells = append(row.Cells, matrixCell{Text: services.FormatCurrency(v), Level: level(v, peak)})
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// correlationView renders the matrix, or nothing when no pair had enough data.
func correlationView(m models.CorrelationMatrix) matrixView {
	view := matrixView{ID: "table-correlation", Columns: m.Fields}
	defined := false
	for i, label := range m.Fields {
		row := matrixRow{Label: label}
		for _, v := range m.Values[i] {
			defined = defined || v.Valid()
			row.Cells = append(row.Cells, matrixCell{Text: formatCorrelation(v), Level: level(float64(v), 1)})
		}
		view.Rows = append(view.Rows, row)
	}
	if !defined {
		view.Rows = nil
	}
	return view
}

var tableSections = []tableSection{
	{templates.Section{ID: "table-state", Title: "Sales and Units by State"}, stateTemplate,
		func(r *services.Report) any { return r.SalesByState }},
	{templates.Section{ID: "table-region-city", Title: "Sales by Region and City"}, regionCityTemplate,
		func(r *services.Report) any { return r.SalesByRegionCity }},
	{templates.Section{ID: "table-heatmap", Title: "Sales Heatmap: Product vs Region"}, matrixTemplate,
		func(r *services.Report) any { return heatmapView(r.SalesHeatmap) }},
	{templates.Section{ID: "table-product-profit", Title: "Product Profitability"}, productProfitTemplate,
		func(r *services.Report) any { return r.ProductProfitability }},
	{templates.Section{ID: "table-correlation", Title: "Correlation Matrix"}, matrixTemplate,
		func(r *services.Report) any { return correlationView(r.Correlations) }},
	{templates.Section{ID: "table-margin", Title: "Profit Margin Distribution by Region"}, marginTemplate,
		func(r *services.Report) any { return r.MarginDistribution }},
}

func renderTemplate(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}

func renderKPIs(k models.KPIs) (string, error) {
	return renderTemplate(kpiTemplate, services.KPICards(k))
}

// chartFragment wraps a chart SVG in its patch target.
func chartFragment(s chartSection, r *services.Report, size charts.Size) string {
	return `<div id="` + s.ID + `" class="chart">` + s.render(r, size) + `</div>`
}

// Sections lists every patchable section in page order.
func Sections() (chartsOut, tablesOut []templates.Section) {
	for _, s := range chartSections {
		chartsOut = append(chartsOut, s.Section)
	}
	for _, s := range tableSections {
		tablesOut = append(tablesOut, s.Section)
	}
	return chartsOut, tablesOut
}

func findChart(id string) (chartSection, bool) {
	for _, s := range chartSections {
		if s.ID == id {
			return s, true
		}
	}
	return chartSection{}, false
}

func findTable(id string) (tableSection, bool) {
	for _, s := range tableSections {
		if s.ID == id {
			return s, true
		}
	}
	return tableSection{}, false
}
