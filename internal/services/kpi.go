package services

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-dashboard/internal/models"
)

func ComputeKPIs(rows []models.PreparedRecord) models.KPIs {
	kpis := models.KPIs{RecordCount: len(rows)}

	profits := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	margins := make([]float64, len(rows))
	for i, r := range rows {
		kpis.TotalSales += r.TotalSales
		kpis.TotalUnitsSold += r.UnitsSold
		kpis.TotalGrossProfit += r.GrossProfit
		profits[i] = r.OperatingProfit
		prices[i] = r.PriceperUnit
		margins[i] = r.ProfitMargin
	}

	kpis.AverageOperatingProfit = models.NullFloat(finiteMean(profits))
	kpis.AveragePricePerUnit = models.NullFloat(finiteMean(prices))
	kpis.AverageProfitMargin = models.NullFloat(finiteMean(margins))
	return kpis
}

// KPICard is a display-ready metric.
type KPICard struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

const notAvailable = "n/a"

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// FormatCurrency renders v as US dollars with grouping, e.g. $1,234.56.
func FormatCurrency(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return printer().Sprintf("$%.2f", v)
}

func FormatPercent(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return printer().Sprintf("%.2f%%", v)
}

func FormatCount(n int) string {
	return printer().Sprintf("%d", n)
}

// KPICards formats the metrics the way the dashboard header shows them.
func KPICards(k models.KPIs) []KPICard {
	return []KPICard{
		{ID: "total-sales", Label: "Total Sales", Value: FormatCurrency(k.TotalSales)},
		{ID: "average-operating-profit", Label: "Average Operating Profit", Value: FormatCurrency(float64(k.AverageOperatingProfit))},
		{ID: "total-units-sold", Label: "Total Units Sold", Value: FormatCount(k.TotalUnitsSold)},
		{ID: "average-price-per-unit", Label: "Average Price per Unit", Value: FormatCurrency(float64(k.AveragePricePerUnit))},
		{ID: "total-gross-profit", Label: "Total Gross Profit", Value: FormatCurrency(k.TotalGrossProfit)},
		{ID: "average-profit-margin", Label: "Average Profit Margin", Value: FormatPercent(float64(k.AverageProfitMargin))},
	}
}
