package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

// aggregates maps the /api/aggregates/{name} path segment to its table in a Report.
var aggregates = map[string]func(*services.Report) any{
	"sales-by-retailer":       func(r *services.Report) any { return r.SalesByRetailer },
	"sales-by-state":          func(r *services.Report) any { return r.SalesByState },
	"sales-by-region-city":    func(r *services.Report) any { return r.SalesByRegionCity },
	"sales-by-region":         func(r *services.Report) any { return r.SalesByRegion },
	"top-products":            func(r *services.Report) any { return r.TopProducts },
	"sales-by-method":         func(r *services.Report) any { return r.SalesByMethod },
	"sales-heatmap":           func(r *services.Report) any { return r.SalesHeatmap },
	"sales-by-month-year":     func(r *services.Report) any { return r.SalesByMonthYear },
	"sales-trend":             func(r *services.Report) any { return r.SalesTrend },
	"product-sales-trend":     func(r *services.Report) any { return r.ProductSalesTrend },
	"profit-by-region":        func(r *services.Report) any { return r.ProfitByRegion },
	"product-profitability":   func(r *services.Report) any { return r.ProductProfitability },
	"correlations":            func(r *services.Report) any { return r.Correlations },
	"margin-distribution":     func(r *services.Report) any { return r.MarginDistribution },
	"sales-by-calendar-month": func(r *services.Report) any { return r.SalesByCalendarMonth },
	"sales-by-quarter":        func(r *services.Report) any { return r.SalesByQuarter },
	"sales-by-day-of-week":    func(r *services.Report) any { return r.SalesByDayOfWeek },
	"cumulative-sales":        func(r *services.Report) any { return r.CumulativeSales },
}

// AggregateNames lists the names accepted by /api/aggregates/{name}, sorted.
func AggregateNames() []string {
	names := make([]string, 0, len(aggregates))
	for name := range aggregates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	version   string
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, version string) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		version:   version,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, err)
}

// report runs a render pass for the request's date range and writes the error response
// itself when that is not possible.
func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) (*services.Report, bool) {
	dr, err := rangeFromQuery(r, h.analytics.DefaultRange())
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "Invalid date range").WithDetails(err.Error()))
		return nil, false
	}

	report, err := h.analytics.Prepare(r.Context(), dr)
	if err != nil {
		h.fail(w, r, prepareError(err))
		return nil, false
	}
	return report, true
}

func (h *APIHandlers) write(w http.ResponseWriter, r *http.Request, data any) {
	headers := map[string]string{"Cache-Control": "no-store"}
	if err := errors.WriteSuccessWithHeaders(w, data, headers); err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to encode response"))
	}
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.write(w, r, report)
}

type kpiResponse struct {
	Range models.DateRange   `json:"range"`
	KPIs  models.KPIs        `json:"kpis"`
	Cards []services.KPICard `json:"cards"`
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.write(w, r, kpiResponse{
		Range: report.Range,
		KPIs:  report.KPIs,
		Cards: services.KPICards(report.KPIs),
	})
}

func (h *APIHandlers) HandleAggregateIndex(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, AggregateNames())
}

func (h *APIHandlers) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	pick, ok := aggregates[name]
	if !ok {
		h.fail(w, r, errors.NotFound("Unknown aggregate").WithDetails(name))
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}
	h.write(w, r, pick(report))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Loaded() {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	}

	h.write(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.analytics.Stats())
}
