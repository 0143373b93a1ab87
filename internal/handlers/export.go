package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/services"
)

// ExportObserver counts completed downloads.
type ExportObserver interface {
	ObserveExport(dataset, format string)
}

type noopExportObserver struct{}

func (noopExportObserver) ObserveExport(string, string) {}

type ExportHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	observer  ExportObserver
	csv       export.CSVOptions
}

func NewExportHandlers(analytics *services.Analytics, logger *slog.Logger, observer ExportObserver, bom bool) *ExportHandlers {
	if observer == nil {
		observer = noopExportObserver{}
	}
	return &ExportHandlers{
		analytics: analytics,
		logger:    logger,
		observer:  observer,
		csv:       export.CSVOptions{BOM: bom},
	}
}

// parseExportFile splits "retailer-sales.csv" into its dataset and format.
func parseExportFile(file string) (export.Dataset, export.Format, error) {
	name, ext, ok := strings.Cut(file, ".")
	if !ok {
		return "", "", errors.BadRequest("Export file needs an extension")
	}
	d, err := export.ParseDataset(name)
	if err != nil {
		return "", "", errors.NotFound("Unknown export dataset").WithDetails(name)
	}
	f, err := export.ParseFormat(ext)
	if err != nil {
		return "", "", errors.NotFound("Unknown export format").WithDetails(ext)
	}
	return d, f, nil
}

func exportTable(d export.Dataset, r *services.Report) export.Table {
	if d == export.MonthlySales {
		return export.MonthlyTable(r.SalesByMonthYear)
	}
	return export.RetailerTable(r.SalesByRetailer)
}

// HandleExport serves GET /export/{file} for the current start/end filter.
func (h *ExportHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	dataset, format, err := parseExportFile(r.PathValue("file"))
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	dr, err := rangeFromQuery(r, h.analytics.DefaultRange())
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.ValidationWrap(err, "Invalid date range").WithDetails(err.Error()))
		return
	}

	report, err := h.analytics.Prepare(r.Context(), dr)
	if err != nil {
		errors.WriteError(w, r, h.logger, prepareError(err))
		return
	}

	table := exportTable(dataset, report)
	var buf bytes.Buffer
	switch format {
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, table)
	default:
		err = export.WriteCSV(&buf, table, h.csv)
	}
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to build export"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+dataset.Filename(format)+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "write export", "error", err)
		return
	}

	h.observer.ObserveExport(string(dataset), string(format))
	h.logger.InfoContext(r.Context(), "export served",
		"dataset", dataset,
		"format", format,
		"rows", len(table.Rows),
	)
}
