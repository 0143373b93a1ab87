package handlers

import (
	"encoding/json"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

const renderWorkers = 4

// FilterSignals are the sidebar inputs the page sends with every datastar request.
type FilterSignals struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	size      charts.Size
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
		size:      charts.Size{Width: charts.DefaultWidth, Height: charts.DefaultHeight},
	}
}

// dateRange reads the filter from datastar signals, or from start/end query parameters
// when the request carries no signals.
func (h *SSEHandlers) dateRange(r *http.Request) (models.DateRange, error) {
	var signals FilterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return models.DateRange{}, err
	}
	if signals.StartDate == "" && signals.EndDate == "" {
		return rangeFromQuery(r, h.analytics.DefaultRange())
	}
	return parseRange(signals.StartDate, signals.EndDate, h.analytics.DefaultRange())
}

func filterError(message string) string {
	if message == "" {
		return `<div id="filter-error"></div>`
	}
	return `<div id="filter-error" class="filter-error" role="alert">` + html.EscapeString(message) + `</div>`
}

// prepare runs the render pass for an SSE request. Failures are patched into the page's
// error slot and reported as false.
func (h *SSEHandlers) prepare(sse *datastar.ServerSentEventGenerator, r *http.Request) (*services.Report, bool) {
	dr, err := h.dateRange(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid filter", "error", err)
		sse.PatchElements(filterError(err.Error()))
		return nil, false
	}

	report, err := h.analytics.Prepare(r.Context(), dr)
	if err != nil {
		appErr := prepareError(err)
		h.logger.ErrorContext(r.Context(), "prepare dashboard", "error", err)
		sse.PatchElements(filterError(appErr.Message))
		return nil, false
	}
	return report, true
}

func (h *SSEHandlers) patchSummary(sse *datastar.ServerSentEventGenerator, report *services.Report) error {
	signals, err := json.Marshal(map[string]any{
		"recordCount": report.KPIs.RecordCount,
		"generatedAt": report.GeneratedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return sse.PatchSignals(signals)
}

// HandleRefreshAll recomputes the dashboard for the current filter and patches every section.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, ok := h.prepare(sse, r)
	if !ok {
		return
	}

	fragments, err := h.renderAll(report)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render dashboard", "error", err)
		sse.PatchElements(filterError("Failed to render dashboard"))
		return
	}

	sse.PatchElements(filterError(""))
	for _, f := range fragments {
		if err := sse.PatchElements(f); err != nil {
			h.logger.WarnContext(r.Context(), "client went away", "error", err)
			return
		}
	}
	if err := h.patchSummary(sse, report); err != nil {
		h.logger.ErrorContext(r.Context(), "patch signals", "error", err)
	}
}

// renderAll produces every fragment in page order. Charts render concurrently.
func (h *SSEHandlers) renderAll(report *services.Report) ([]string, error) {
	kpis, err := renderKPIs(report.KPIs)
	if err != nil {
		return nil, err
	}

	out := make([]string, 1+len(chartSections)+len(tableSections))
	out[0] = kpis

	var g errgroup.Group
	g.SetLimit(renderWorkers)
	for i, s := range chartSections {
		g.Go(func() error {
			out[1+i] = chartFragment(s, report, h.size)
			return nil
		})
	}
	for i, s := range tableSections {
		g.Go(func() error {
			fragment, err := renderTemplate(s.tmpl, s.data(report))
			out[1+len(chartSections)+i] = fragment
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// HandleSection patches a single section: "kpis", a chart id or a table id.
func (h *SSEHandlers) HandleSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var render func(*services.Report) (string, error)
	switch chart, isChart := findChart(id); {
	case id == "kpis":
		render = func(rep *services.Report) (string, error) { return renderKPIs(rep.KPIs) }
	case isChart:
		render = func(rep *services.Report) (string, error) { return chartFragment(chart, rep, h.size), nil }
	default:
		table, ok := findTable(id)
		if !ok {
			http.Error(w, "unknown section", http.StatusNotFound)
			return
		}
		render = func(rep *services.Report) (string, error) { return renderTemplate(table.tmpl, table.data(rep)) }
	}

	sse := datastar.NewSSE(w, r)
	report, ok := h.prepare(sse, r)
	if !ok {
		return
	}

	fragment, err := render(report)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render section", "section", id, "error", err)
		sse.PatchElements(filterError("Failed to render " + id))
		return
	}
	sse.PatchElements(fragment)
}
