package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	page := Page{
		Title:     "Sales <Dashboard>",
		Subtitle:  "Adidas US sales",
		StartDate: "2021-01-01",
		EndDate:   "2023-01-01",
		Charts:    []Section{{ID: "chart-retailer", Title: "Total Sales by Retailer"}},
		Tables:    []Section{{ID: "table-state", Title: "Sales and Units by State"}},
		Exports:   []ExportLink{{Label: "Retailer sales (CSV)", Href: "/export/retailer-sales.csv"}},
	}

	var b strings.Builder
	require.NoError(t, Dashboard(page).Render(context.Background(), &b))
	html := b.String()

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "Sales &lt;Dashboard&gt;")
	assert.NotContains(t, html, "<Dashboard>")
	assert.Contains(t, html, `id="chart-retailer"`)
	assert.Contains(t, html, `id="table-state"`)
	assert.Contains(t, html, `id="kpis"`)
	assert.Contains(t, html, `id="filter-error"`)
	assert.Contains(t, html, `href="/export/retailer-sales.csv"`)
	assert.Contains(t, html, `data-on-load="@get('/sse/refresh-all')"`)
	assert.Contains(t, html, "startDate: &#39;2021-01-01&#39;")
	assert.Contains(t, html, `value="2021-01-01"`)
}
