package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleRecords() []models.SalesRecord {
	return []models.SalesRecord{
		{Retailer: "Walmart", InvoiceDate: day(2021, 1, 4), Region: "South", State: "Texas", City: "Houston", Product: "Men's Apparel", SalesMethod: "Online", PriceperUnit: 50, UnitsSold: 10, TotalSales: 500, OperatingProfit: 150},
		{Retailer: "Amazon", InvoiceDate: day(2021, 1, 10), Region: "West", State: "California", City: "San Francisco", Product: "Women's Apparel", SalesMethod: "Outlet", PriceperUnit: 40, UnitsSold: 20, TotalSales: 800, OperatingProfit: 200},
		{Retailer: "Walmart", InvoiceDate: day(2021, 2, 1), Region: "South", State: "Florida", City: "Miami", Product: "Men's Apparel", SalesMethod: "In-store", PriceperUnit: 60, UnitsSold: 5, TotalSales: 300, OperatingProfit: 60},
		{Retailer: "Foot Locker", InvoiceDate: day(2021, 4, 15), Region: "Northeast", State: "New York", City: "New York", Product: "Men's Street Footwear", SalesMethod: "Online", PriceperUnit: 70, UnitsSold: 10, TotalSales: 700, OperatingProfit: 350},
		{Retailer: "Amazon", InvoiceDate: day(2022, 3, 3), Region: "West", State: "California", City: "Los Angeles", Product: "Women's Apparel", SalesMethod: "Online", PriceperUnit: 40, UnitsSold: 10, TotalSales: 400, OperatingProfit: 100},
		{Retailer: "", InvoiceDate: day(2022, 3, 3), Region: "", State: "Texas", City: "Dallas", Product: "Socks", SalesMethod: "Online", PriceperUnit: 5, UnitsSold: 0, TotalSales: 0, OperatingProfit: 0},
	}
}

func sampleRows() []models.PreparedRecord {
	return dataset.Derive(sampleRecords())
}

func totalSales(rows []models.PreparedRecord) float64 {
	sum := 0.0
	for _, r := range rows {
		sum += r.TotalSales
	}
	return sum
}

func categories(rows []models.CategoryTotal) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Category
	}
	return out
}

func TestSalesByRetailer(t *testing.T) {
	got := SalesByRetailer(sampleRows())

	assert.Equal(t, []models.CategoryTotal{
		{Category: "Amazon", TotalSales: 1200},
		{Category: "Foot Locker", TotalSales: 700},
		{Category: UnknownCategory, TotalSales: 0},
		{Category: "Walmart", TotalSales: 800},
	}, got)
}

func TestSalesByRetailer_WorkedExample(t *testing.T) {
	table := dataset.NewTable("memory", []models.SalesRecord{
		{Retailer: "A", InvoiceDate: day(2021, 6, 1), TotalSales: 100, OperatingProfit: 20, UnitsSold: 10, PriceperUnit: 10},
		{Retailer: "B", InvoiceDate: day(2022, 1, 1), TotalSales: 200, OperatingProfit: 50, UnitsSold: 20, PriceperUnit: 10},
	})
	rows := dataset.Derive(table.Filter(models.DateRange{Start: day(2021, 1, 1), End: day(2021, 12, 31)}))

	assert.Equal(t, []models.CategoryTotal{{Category: "A", TotalSales: 100}}, SalesByRetailer(rows))
}

func TestPartitionSumsMatchTotal(t *testing.T) {
	rows := sampleRows()
	total := totalSales(rows)

	partitions := map[string][]models.CategoryTotal{
		"retailer": SalesByRetailer(rows),
		"region":   SalesByRegion(rows),
		"method":   SalesByMethod(rows),
	}
	for name, groups := range partitions {
		sum := 0.0
		for _, g := range groups {
			sum += g.TotalSales
		}
		assert.InDelta(t, total, sum, 1e-9, name)
	}

	stateSum, units := 0.0, 0
	for _, s := range SalesAndUnitsByState(rows) {
		stateSum += s.TotalSales
		units += s.UnitsSold
	}
	assert.InDelta(t, total, stateSum, 1e-9)
	assert.Equal(t, 55, units)

	cityTotal := 0.0
	for _, c := range SalesByRegionCity(rows) {
		cityTotal += c.TotalSales
	}
	assert.InDelta(t, total, cityTotal, 1e-9)
}

func TestTopProducts(t *testing.T) {
	rows := sampleRows()

	got := TopProducts(rows, DefaultTopProducts)
	require.LessOrEqual(t, len(got), DefaultTopProducts)
	assert.Equal(t, []string{"Women's Apparel", "Men's Apparel", "Men's Street Footwear", "Socks"}, categories(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].TotalSales, got[i].TotalSales)
	}

	assert.Len(t, TopProducts(rows, 2), 2)
	assert.Empty(t, TopProducts(rows, 0))
}

func TestTopProducts_TiesKeepFirstAppearance(t *testing.T) {
	rows := dataset.Derive([]models.SalesRecord{
		{Product: "B", InvoiceDate: day(2021, 1, 1), TotalSales: 10},
		{Product: "A", InvoiceDate: day(2021, 1, 2), TotalSales: 10},
		{Product: "C", InvoiceDate: day(2021, 1, 3), TotalSales: 10},
	})

	assert.Equal(t, []string{"B", "A"}, categories(TopProducts(rows, 2)))
}

func TestSalesHeatmap(t *testing.T) {
	hm := SalesHeatmap(sampleRows())

	assert.Equal(t, []string{"Men's Apparel", "Men's Street Footwear", "Socks", "Women's Apparel"}, hm.Rows)
	assert.Equal(t, []string{"Northeast", "South", UnknownCategory, "West"}, hm.Columns)
	require.Len(t, hm.Values, 4)
	assert.Equal(t, []float64{0, 800, 0, 0}, hm.Values[0])
	assert.Equal(t, []float64{0, 0, 0, 1200}, hm.Values[3])
}

func TestSalesByMonthYear(t *testing.T) {
	got := SalesByMonthYear(sampleRows())

	require.Len(t, got, 4)
	assert.Equal(t, models.PeriodTotal{Period: "2021-01", Label: "Jan'21", TotalSales: 1300}, got[0])
	assert.Equal(t, "Feb'21", got[1].Label)
	assert.Equal(t, "Apr'21", got[2].Label)
	assert.Equal(t, models.PeriodTotal{Period: "2022-03", Label: "Mar'22", TotalSales: 400}, got[3])

	trend := SalesTrend(sampleRows())
	require.Len(t, trend, 4)
	assert.Equal(t, "2021-01", trend[0].Label)
}

func TestProductSalesTrend(t *testing.T) {
	got := ProductSalesTrend(sampleRows())

	require.Len(t, got, 6)
	assert.Equal(t, day(2021, 1, 4), got[0].InvoiceDate)
	assert.Equal(t, "Socks", got[4].Product)
	assert.Equal(t, "Women's Apparel", got[5].Product)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].InvoiceDate.Before(got[i-1].InvoiceDate))
	}
}

func TestProfitTables(t *testing.T) {
	rows := sampleRows()

	assert.Equal(t, []models.RegionProfit{
		{Region: "Northeast", OperatingProfit: 350},
		{Region: "South", OperatingProfit: 210},
		{Region: UnknownCategory, OperatingProfit: 0},
		{Region: "West", OperatingProfit: 300},
	}, ProfitByRegion(rows))

	pp := ProductProfitabilityTable(rows)
	require.Len(t, pp, 4)
	assert.Equal(t, models.ProductProfitability{Product: "Men's Apparel", TotalSales: 800, OperatingProfit: 210}, pp[0])
}

func TestCumulativeSeries(t *testing.T) {
	rows := dataset.Derive([]models.SalesRecord{
		{InvoiceDate: day(2021, 3, 1), TotalSales: 30},
		{InvoiceDate: day(2021, 1, 1), TotalSales: 10},
		{InvoiceDate: day(2021, 2, 1), TotalSales: 20},
	})

	got := CumulativeSeries(rows)
	assert.Equal(t, []models.CumulativePoint{
		{InvoiceDate: day(2021, 1, 1), CumulativeSales: 10},
		{InvoiceDate: day(2021, 2, 1), CumulativeSales: 30},
		{InvoiceDate: day(2021, 3, 1), CumulativeSales: 60},
	}, got)
}

func TestCalendarBreakdowns(t *testing.T) {
	rows := sampleRows()

	months := SalesByCalendarMonth(rows)
	require.Len(t, months, 4)
	assert.Equal(t, models.OrdinalTotal{Ordinal: 1, Label: "Jan", TotalSales: 1300}, months[0])
	assert.Equal(t, models.OrdinalTotal{Ordinal: 3, Label: "Mar", TotalSales: 400}, months[2])

	quarters := SalesByQuarter(rows)
	assert.Equal(t, []models.OrdinalTotal{
		{Ordinal: 1, Label: "Q1", TotalSales: 2000},
		{Ordinal: 2, Label: "Q2", TotalSales: 700},
	}, quarters)

	// 2021-01-04 was a Monday, 2022-03-03 a Thursday.
	days := SalesByDayOfWeek(rows)
	require.NotEmpty(t, days)
	assert.Equal(t, models.OrdinalTotal{Ordinal: 0, Label: "Mon", TotalSales: 800}, days[0])
}

func TestAggregates_Empty(t *testing.T) {
	var rows []models.PreparedRecord

	assert.Empty(t, SalesByRetailer(rows))
	assert.NotNil(t, SalesByRetailer(rows))
	assert.Empty(t, TopProducts(rows, 5))
	assert.Empty(t, SalesByMonthYear(rows))
	assert.Empty(t, CumulativeSeries(rows))
	assert.Empty(t, SalesHeatmap(rows).Rows)
}

func BenchmarkBuildReport(b *testing.B) {
	recs := make([]models.SalesRecord, 10000)
	for i := range recs {
		recs[i] = models.SalesRecord{
			Retailer:     []string{"Walmart", "Amazon", "Kohl's"}[i%3],
			InvoiceDate:  day(2021, 1, 1).AddDate(0, 0, i%730),
			Region:       []string{"West", "South", "Midwest", "Northeast"}[i%4],
			Product:      []string{"A", "B", "C", "D", "E", "F"}[i%6],
			PriceperUnit: float64(10 + i%50),
			UnitsSold:    1 + i%20,
			TotalSales:   float64(100 + i%1000),
		}
	}
	rows := dataset.Derive(recs)

	b.ResetTimer()
	for b.Loop() {
		_ = BuildReport(rows)
	}
}
