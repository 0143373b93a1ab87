package services

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"sales-dashboard/internal/models"
)

// CorrelationFields are the columns of the correlation heatmap, in display order.
var CorrelationFields = []string{"TotalSales", "OperatingProfit", "PriceperUnit", "UnitsSold", "ProfitMargin"}

func correlationColumns(rows []models.PreparedRecord) [][]float64 {
	cols := make([][]float64, len(CorrelationFields))
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for j, r := range rows {
		cols[0][j] = r.TotalSales
		cols[1][j] = r.OperatingProfit
		cols[2][j] = r.PriceperUnit
		cols[3][j] = float64(r.UnitsSold)
		cols[4][j] = r.ProfitMargin
	}
	return cols
}

// Correlations computes the Pearson matrix over CorrelationFields. Each pair uses only the
// rows where both values are finite; a pair with fewer than two such rows or a constant
// column is NaN.
func Correlations(rows []models.PreparedRecord) models.CorrelationMatrix {
	cols := correlationColumns(rows)
	n := len(cols)

	values := make([][]models.NullFloat, n)
	for i := range values {
		values[i] = make([]models.NullFloat, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := pairwiseCorrelation(cols[i], cols[j])
			if i == j && !math.IsNaN(c) {
				c = 1
			}
			values[i][j] = models.NullFloat(c)
			values[j][i] = models.NullFloat(c)
		}
	}

	return models.CorrelationMatrix{
		Fields: slices.Clone(CorrelationFields),
		Values: values,
	}
}

func pairwiseCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for k := range x {
		if finite(x[k]) && finite(y[k]) {
			xs = append(xs, x[k])
			ys = append(ys, y[k])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, stat.Correlation(xs, ys, nil)))
}

// MarginDistribution summarizes ProfitMargin per region for a box plot. Rows without a
// defined margin are left out of the statistics but the region is still listed.
func MarginDistribution(rows []models.PreparedRecord) []models.BoxStats {
	groups := make(map[string][]float64)
	for _, r := range rows {
		k := categoryKey(r.Region)
		if _, ok := groups[k]; !ok {
			groups[k] = nil
		}
		if finite(r.ProfitMargin) {
			groups[k] = append(groups[k], r.ProfitMargin)
		}
	}

	out := make([]models.BoxStats, 0, len(groups))
	for region, values := range groups {
		out = append(out, boxStats(region, values))
	}
	slices.SortFunc(out, func(a, b models.BoxStats) int {
		return cmp.Compare(a.Group, b.Group)
	})
	return out
}

func boxStats(group string, values []float64) models.BoxStats {
	nan := models.NullFloat(math.NaN())
	if len(values) == 0 {
		return models.BoxStats{Group: group, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return models.BoxStats{
		Group:  group,
		Count:  len(sorted),
		Min:    models.NullFloat(floats.Min(sorted)),
		Q1:     models.NullFloat(quantile(sorted, 0.25)),
		Median: models.NullFloat(quantile(sorted, 0.5)),
		Q3:     models.NullFloat(quantile(sorted, 0.75)),
		Max:    models.NullFloat(floats.Max(sorted)),
	}
}

// quantile interpolates linearly between the closest ranks of an ascending slice, so the
// median of an even-length sample is the mean of the two middle values.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// finiteMean is the mean of the finite values, NaN when there are none.
func finiteMean(values []float64) float64 {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return math.NaN()
	}
	return stat.Mean(kept, nil)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
