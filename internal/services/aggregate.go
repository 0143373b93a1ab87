package services

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// UnknownCategory replaces empty grouping keys so their rows still count toward totals.
const UnknownCategory = "Unknown"

// DefaultTopProducts is how many products the top-products chart shows.
const DefaultTopProducts = 5

var (
	quarterLabels = []string{"", "Q1", "Q2", "Q3", "Q4"}
	weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

func categoryKey(s string) string {
	if s == "" {
		return UnknownCategory
	}
	return s
}

// sums accumulates per-key totals and remembers the order keys were first seen.
type sums[K comparable] struct {
	order  []K
	totals map[K]float64
}

func newSums[K comparable]() *sums[K] {
	return &sums[K]{totals: make(map[K]float64)}
}

func (s *sums[K]) add(k K, v float64) {
	if _, ok := s.totals[k]; !ok {
		s.order = append(s.order, k)
	}
	s.totals[k] += v
}

func salesBy(rows []models.PreparedRecord, key func(models.PreparedRecord) string) *sums[string] {
	s := newSums[string]()
	for _, r := range rows {
		s.add(categoryKey(key(r)), r.TotalSales)
	}
	return s
}

func sortedCategoryTotals(s *sums[string]) []models.CategoryTotal {
	out := make([]models.CategoryTotal, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.CategoryTotal{Category: k, TotalSales: s.totals[k]})
	}
	slices.SortFunc(out, func(a, b models.CategoryTotal) int {
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

func SalesByRetailer(rows []models.PreparedRecord) []models.CategoryTotal {
	return sortedCategoryTotals(salesBy(rows, func(r models.PreparedRecord) string { return r.Retailer }))
}

func SalesByRegion(rows []models.PreparedRecord) []models.CategoryTotal {
	return sortedCategoryTotals(salesBy(rows, func(r models.PreparedRecord) string { return r.Region }))
}

func SalesByMethod(rows []models.PreparedRecord) []models.CategoryTotal {
	return sortedCategoryTotals(salesBy(rows, func(r models.PreparedRecord) string { return r.SalesMethod }))
}

// TopProducts returns at most n products by descending sales. Equal totals keep the order
// in which the products first appear in rows.
func TopProducts(rows []models.PreparedRecord, n int) []models.CategoryTotal {
	if n <= 0 {
		return []models.CategoryTotal{}
	}
	s := salesBy(rows, func(r models.PreparedRecord) string { return r.Product })

	out := make([]models.CategoryTotal, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.CategoryTotal{Category: k, TotalSales: s.totals[k]})
	}
	slices.SortStableFunc(out, func(a, b models.CategoryTotal) int {
		return cmp.Compare(b.TotalSales, a.TotalSales)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func SalesAndUnitsByState(rows []models.PreparedRecord) []models.StateSales {
	index := make(map[string]int)
	out := make([]models.StateSales, 0)
	for _, r := range rows {
		k := categoryKey(r.State)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.StateSales{State: k})
		}
		out[i].TotalSales += r.TotalSales
		out[i].UnitsSold += r.UnitsSold
	}
	slices.SortFunc(out, func(a, b models.StateSales) int {
		return cmp.Compare(a.State, b.State)
	})
	return out
}

func SalesByRegionCity(rows []models.PreparedRecord) []models.RegionCitySales {
	type regionCity struct{ region, city string }
	s := newSums[regionCity]()
	for _, r := range rows {
		s.add(regionCity{categoryKey(r.Region), categoryKey(r.City)}, r.TotalSales)
	}

	out := make([]models.RegionCitySales, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.RegionCitySales{Region: k.region, City: k.city, TotalSales: s.totals[k]})
	}
	slices.SortFunc(out, func(a, b models.RegionCitySales) int {
		return cmp.Or(cmp.Compare(a.Region, b.Region), cmp.Compare(a.City, b.City))
	})
	return out
}

func ProfitByRegion(rows []models.PreparedRecord) []models.RegionProfit {
	s := newSums[string]()
	for _, r := range rows {
		s.add(categoryKey(r.Region), r.OperatingProfit)
	}

	out := make([]models.RegionProfit, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.RegionProfit{Region: k, OperatingProfit: s.totals[k]})
	}
	slices.SortFunc(out, func(a, b models.RegionProfit) int {
		return cmp.Compare(a.Region, b.Region)
	})
	return out
}

func ProductProfitabilityTable(rows []models.PreparedRecord) []models.ProductProfitability {
	index := make(map[string]int)
	out := make([]models.ProductProfitability, 0)
	for _, r := range rows {
		k := categoryKey(r.Product)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.ProductProfitability{Product: k})
		}
		out[i].TotalSales += r.TotalSales
		out[i].OperatingProfit += r.OperatingProfit
	}
	slices.SortFunc(out, func(a, b models.ProductProfitability) int {
		return cmp.Compare(a.Product, b.Product)
	})
	return out
}

// SalesHeatmap pivots sales into a Product x Region matrix. Pairs with no rows are 0.
func SalesHeatmap(rows []models.PreparedRecord) models.Heatmap {
	type cell struct{ product, region string }
	s := newSums[cell]()
	productSet := make(map[string]struct{})
	regionSet := make(map[string]struct{})
	for _, r := range rows {
		c := cell{categoryKey(r.Product), categoryKey(r.Region)}
		s.add(c, r.TotalSales)
		productSet[c.product] = struct{}{}
		regionSet[c.region] = struct{}{}
	}

	products := sortedKeys(productSet)
	regions := sortedKeys(regionSet)

	values := make([][]float64, len(products))
	for i, p := range products {
		values[i] = make([]float64, len(regions))
		for j, reg := range regions {
			values[i][j] = s.totals[cell{p, reg}]
		}
	}

	return models.Heatmap{Rows: products, Columns: regions, Values: values}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SalesByMonthYear sums sales per calendar month in chronological order, labelled Jan'21.
func SalesByMonthYear(rows []models.PreparedRecord) []models.PeriodTotal {
	return periodTotals(rows, func(r models.PreparedRecord) string { return r.MonthYear })
}

// SalesTrend sums sales per calendar month in chronological order, labelled 2021-01.
func SalesTrend(rows []models.PreparedRecord) []models.PeriodTotal {
	return periodTotals(rows, func(r models.PreparedRecord) string { return r.YearMonth })
}

func periodTotals(rows []models.PreparedRecord, label func(models.PreparedRecord) string) []models.PeriodTotal {
	s := newSums[string]()
	labels := make(map[string]string)
	for _, r := range rows {
		s.add(r.YearMonth, r.TotalSales)
		labels[r.YearMonth] = label(r)
	}

	out := make([]models.PeriodTotal, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.PeriodTotal{Period: k, Label: labels[k], TotalSales: s.totals[k]})
	}
	// YYYY-MM sorts lexically in time order.
	slices.SortFunc(out, func(a, b models.PeriodTotal) int {
		return cmp.Compare(a.Period, b.Period)
	})
	return out
}

func ProductSalesTrend(rows []models.PreparedRecord) []models.ProductDailySales {
	type dayProduct struct {
		day     time.Time
		product string
	}
	s := newSums[dayProduct]()
	for _, r := range rows {
		s.add(dayProduct{r.InvoiceDate, categoryKey(r.Product)}, r.TotalSales)
	}

	out := make([]models.ProductDailySales, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.ProductDailySales{InvoiceDate: k.day, Product: k.product, TotalSales: s.totals[k]})
	}
	slices.SortFunc(out, func(a, b models.ProductDailySales) int {
		return cmp.Or(a.InvoiceDate.Compare(b.InvoiceDate), cmp.Compare(a.Product, b.Product))
	})
	return out
}

// CumulativeSeries lists every row's running sales total in chronological order.
func CumulativeSeries(rows []models.PreparedRecord) []models.CumulativePoint {
	records := make([]models.SalesRecord, len(rows))
	for i, r := range rows {
		records[i] = r.SalesRecord
	}

	out := make([]models.CumulativePoint, 0, len(rows))
	for _, i := range dataset.ChronologicalOrder(records) {
		out = append(out, models.CumulativePoint{
			InvoiceDate:     rows[i].InvoiceDate,
			CumulativeSales: rows[i].CumulativeSales,
		})
	}
	return out
}

func SalesByCalendarMonth(rows []models.PreparedRecord) []models.OrdinalTotal {
	return ordinalTotals(rows, func(r models.PreparedRecord) int { return r.Month }, func(m int) string {
		return time.Month(m).String()[:3]
	})
}

func SalesByQuarter(rows []models.PreparedRecord) []models.OrdinalTotal {
	return ordinalTotals(rows, func(r models.PreparedRecord) int { return r.Quarter }, func(q int) string {
		if q > 0 && q < len(quarterLabels) {
			return quarterLabels[q]
		}
		return "Q" + strconv.Itoa(q)
	})
}

func SalesByDayOfWeek(rows []models.PreparedRecord) []models.OrdinalTotal {
	return ordinalTotals(rows, func(r models.PreparedRecord) int { return r.DayOfWeek }, func(d int) string {
		if d >= 0 && d < len(weekdayLabels) {
			return weekdayLabels[d]
		}
		return strconv.Itoa(d)
	})
}

func ordinalTotals(rows []models.PreparedRecord, key func(models.PreparedRecord) int, label func(int) string) []models.OrdinalTotal {
	s := newSums[int]()
	for _, r := range rows {
		s.add(key(r), r.TotalSales)
	}

	out := make([]models.OrdinalTotal, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, models.OrdinalTotal{Ordinal: k, Label: label(k), TotalSales: s.totals[k]})
	}
	slices.SortFunc(out, func(a, b models.OrdinalTotal) int {
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	return out
}
