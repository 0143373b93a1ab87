package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

// ErrNotLoaded is returned by Prepare before any dataset has been loaded.
var ErrNotLoaded = errors.New("dataset not loaded")

const tracerName = "sales-dashboard/internal/services"

// Report is every table and metric of one render pass.
type Report struct {
	Range       models.DateRange `json:"range"`
	GeneratedAt time.Time        `json:"generated_at"`
	KPIs        models.KPIs      `json:"kpis"`

	SalesByRetailer      []models.CategoryTotal        `json:"sales_by_retailer"`
	SalesByState         []models.StateSales           `json:"sales_by_state"`
	SalesByRegionCity    []models.RegionCitySales      `json:"sales_by_region_city"`
	SalesByRegion        []models.CategoryTotal        `json:"sales_by_region"`
	TopProducts          []models.CategoryTotal        `json:"top_products"`
	SalesByMethod        []models.CategoryTotal        `json:"sales_by_method"`
	SalesHeatmap         models.Heatmap                `json:"sales_heatmap"`
	SalesByMonthYear     []models.PeriodTotal          `json:"sales_by_month_year"`
	SalesTrend           []models.PeriodTotal          `json:"sales_trend"`
	ProductSalesTrend    []models.ProductDailySales    `json:"product_sales_trend"`
	ProfitByRegion       []models.RegionProfit         `json:"profit_by_region"`
	ProductProfitability []models.ProductProfitability `json:"product_profitability"`
	Correlations         models.CorrelationMatrix      `json:"correlations"`
	MarginDistribution   []models.BoxStats             `json:"margin_distribution"`
	SalesByCalendarMonth []models.OrdinalTotal         `json:"sales_by_calendar_month"`
	SalesByQuarter       []models.OrdinalTotal         `json:"sales_by_quarter"`
	SalesByDayOfWeek     []models.OrdinalTotal         `json:"sales_by_day_of_week"`
	CumulativeSales      []models.CumulativePoint      `json:"cumulative_sales"`
}

// Observer receives pipeline measurements, typically backed by Prometheus collectors.
type Observer interface {
	ObserveRender(duration time.Duration, rows int)
	SetDatasetRecords(n int)
}

type noopObserver struct{}

func (noopObserver) ObserveRender(time.Duration, int) {}
func (noopObserver) SetDatasetRecords(int)            {}

type Option func(*Analytics)

func WithLogger(l *slog.Logger) Option {
	return func(a *Analytics) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithCache(c *dataset.Cache) Option {
	return func(a *Analytics) { a.cache = c }
}

func WithDefaultRange(r models.DateRange) Option {
	return func(a *Analytics) { a.defaults = r }
}

func WithObserver(o Observer) Option {
	return func(a *Analytics) {
		if o != nil {
			a.observer = o
		}
	}
}

// Analytics holds the base table and runs render passes over it. The table is replaced
// wholesale on reload; each pass works on its own filtered copy.
type Analytics struct {
	mu       sync.RWMutex
	table    *dataset.Table
	cache    *dataset.Cache
	defaults models.DateRange

	renders  atomic.Int64
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// DefaultDateRange is the dashboard's initial filter, 2021-01-01 through 2023-01-01.
func DefaultDateRange() models.DateRange {
	return models.DateRange{
		Start: time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		defaults: DefaultDateRange(),
		logger:   slog.Default(),
		observer: noopObserver{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadFromFile loads path, preferring a fresh cache entry over parsing the source.
func (a *Analytics) LoadFromFile(ctx context.Context, path string) error {
	ctx, span := a.tracer.Start(ctx, "analytics.load", trace.WithAttributes(attribute.String("source", path)))
	defer span.End()

	if t, ok := a.cache.Get(path); ok {
		a.SetTable(t)
		span.SetAttributes(attribute.Bool("cache_hit", true), attribute.Int("records", t.Len()))
		a.logger.Info("loaded from cache", "source", path, "records", t.Len())
		return nil
	}

	start := time.Now()
	a.logger.Info("loading dataset", "source", path)

	t, err := dataset.Load(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return fmt.Errorf("load dataset: %w", err)
	}

	if err := a.cache.Put(t); err != nil {
		a.logger.Warn("failed to save cache", "error", err)
	}

	a.SetTable(t)

	duration := time.Since(start)
	span.SetAttributes(attribute.Bool("cache_hit", false), attribute.Int("records", t.Len()))
	a.logger.Info("dataset loaded",
		"records", t.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(t.Len())/duration.Seconds()))

	return nil
}

func (a *Analytics) SetTable(t *dataset.Table) {
	a.mu.Lock()
	a.table = t
	a.mu.Unlock()

	if t != nil {
		a.observer.SetDatasetRecords(t.Len())
	}
}

// SetData installs records as an in-memory table.
func (a *Analytics) SetData(records []models.SalesRecord) {
	a.SetTable(dataset.NewTable("memory", records))
}

func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table != nil
}

func (a *Analytics) DefaultRange() models.DateRange {
	return a.defaults
}

func (a *Analytics) snapshot() *dataset.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table
}

// Prepare runs one render pass: filter to r, derive the calculated columns and compute every
// aggregate. The returned Report shares nothing with the base table.
func (a *Analytics) Prepare(ctx context.Context, r models.DateRange) (*Report, error) {
	_, span := a.tracer.Start(ctx, "analytics.prepare", trace.WithAttributes(
		attribute.String("start", r.Start.Format(time.DateOnly)),
		attribute.String("end", r.End.Format(time.DateOnly)),
	))
	defer span.End()

	t := a.snapshot()
	if t == nil {
		span.SetStatus(codes.Error, ErrNotLoaded.Error())
		return nil, ErrNotLoaded
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	rows := dataset.Derive(t.Filter(r))
	report := BuildReport(rows)
	report.Range = r

	a.renders.Add(1)
	a.observer.ObserveRender(time.Since(start), len(rows))
	span.SetAttributes(attribute.Int("rows", len(rows)))

	return report, nil
}

// BuildReport computes every aggregate over an already prepared working copy.
func BuildReport(rows []models.PreparedRecord) *Report {
	return &Report{
		GeneratedAt:          time.Now(),
		KPIs:                 ComputeKPIs(rows),
		SalesByRetailer:      SalesByRetailer(rows),
		SalesByState:         SalesAndUnitsByState(rows),
		SalesByRegionCity:    SalesByRegionCity(rows),
		SalesByRegion:        SalesByRegion(rows),
		TopProducts:          TopProducts(rows, DefaultTopProducts),
		SalesByMethod:        SalesByMethod(rows),
		SalesHeatmap:         SalesHeatmap(rows),
		SalesByMonthYear:     SalesByMonthYear(rows),
		SalesTrend:           SalesTrend(rows),
		ProductSalesTrend:    ProductSalesTrend(rows),
		ProfitByRegion:       ProfitByRegion(rows),
		ProductProfitability: ProductProfitabilityTable(rows),
		Correlations:         Correlations(rows),
		MarginDistribution:   MarginDistribution(rows),
		SalesByCalendarMonth: SalesByCalendarMonth(rows),
		SalesByQuarter:       SalesByQuarter(rows),
		SalesByDayOfWeek:     SalesByDayOfWeek(rows),
		CumulativeSales:      CumulativeSeries(rows),
	}
}

// Stats reports the state of the loaded dataset for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	t := a.snapshot()
	stats := map[string]any{
		"loaded":        t != nil,
		"render_passes": a.renders.Load(),
		"default_start": a.defaults.Start.Format(time.DateOnly),
		"default_end":   a.defaults.End.Format(time.DateOnly),
	}
	if t == nil {
		return stats
	}

	stats["source"] = t.Source()
	stats["record_count"] = t.Len()
	stats["loaded_at"] = t.LoadedAt()
	if first, last, ok := t.DateSpan(); ok {
		stats["first_invoice"] = first.Format(time.DateOnly)
		stats["last_invoice"] = last.Format(time.DateOnly)
	}
	return stats
}
