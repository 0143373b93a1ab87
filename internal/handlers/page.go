package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/export"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	pageCacheAge  = "public, max-age=300"
)

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{analytics: analytics, logger: logger}
}

func exportLinks() []templates.ExportLink {
	var links []templates.ExportLink
	for _, d := range []struct {
		dataset export.Dataset
		label   string
	}{
		{export.RetailerSales, "Retailer sales"},
		{export.MonthlySales, "Monthly sales"},
	} {
		for _, f := range []export.Format{export.FormatCSV, export.FormatXLSX} {
			links = append(links, templates.ExportLink{
				Label: d.label + " (" + string(f) + ")",
				Href:  "/export/" + string(d.dataset) + "." + string(f),
			})
		}
	}
	return links
}

func (h *PageHandlers) page() templates.Page {
	dr := h.analytics.DefaultRange()
	chartList, tableList := Sections()
	return templates.Page{
		Title:     "Adidas Sales Dashboard",
		Subtitle:  "US sales by retailer, region and product",
		StartDate: dr.Start.Format(DateLayout),
		EndDate:   dr.End.Format(DateLayout),
		Charts:    chartList,
		Tables:    tableList,
		Exports:   exportLinks(),
	}
}

// HandleDashboard serves the page shell. Only the exact root path renders it.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", pageCacheAge)
	if err := templates.Dashboard(h.page()).Render(ctx, w); err != nil {
		h.logger.ErrorContext(ctx, "render dashboard page", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
