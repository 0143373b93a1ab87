package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Options struct {
	Version string
	// Metrics enables /metrics and per-route request metrics when set.
	Metrics   *observability.Metrics
	ExportBOM bool
}

type Server struct {
	analytics      *services.Analytics
	mux            *http.ServeMux
	handler        http.Handler
	logger         *slog.Logger
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
	pageHandlers   *handlers.PageHandlers
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, opts Options) *Server {
	var exportObserver handlers.ExportObserver
	if opts.Metrics != nil {
		exportObserver = opts.Metrics
	}

	s := &Server{
		analytics:      analytics,
		mux:            http.NewServeMux(),
		logger:         logger,
		apiHandlers:    handlers.NewAPIHandlers(analytics, logger, opts.Version),
		sseHandlers:    handlers.NewSSEHandlers(analytics, logger),
		exportHandlers: handlers.NewExportHandlers(analytics, logger, exportObserver, opts.ExportBOM),
		pageHandlers:   handlers.NewPageHandlers(analytics, logger),
	}
	s.setupRoutes(opts.Metrics)

	s.handler = s.mux
	if opts.Metrics != nil {
		// Innermost, so the mux has already set r.Pattern when the request is recorded.
		s.handler = middleware.Metrics(opts.Metrics)(s.mux)
	}
	return s
}

func (s *Server) setupRoutes(metrics *observability.Metrics) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/report", s.apiHandlers.HandleReport)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/aggregates", s.apiHandlers.HandleAggregateIndex)
	s.mux.HandleFunc("GET /api/aggregates/{name}", s.apiHandlers.HandleAggregate)

	// Downloads
	s.mux.HandleFunc("GET /export/{file}", s.exportHandlers.HandleExport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.mux.HandleFunc("GET /sse/sections/{id}", s.sseHandlers.HandleSection)

	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics.Handler())
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
