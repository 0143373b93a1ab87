package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/export"
)

type exportLog struct {
	mu    sync.Mutex
	names []string
}

func (l *exportLog) ObserveExport(dataset, format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, dataset+"."+format)
}

func exportMux(h *ExportHandlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /export/{file}", h.HandleExport)
	return mux
}

func TestExportHandlers_RetailerCSVRoundTrip(t *testing.T) {
	obs := &exportLog{}
	mux := exportMux(NewExportHandlers(createTestAnalytics(), testLogger(), obs, false))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/retailer-sales.csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="RetailerSales.csv"`, rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Retailer", "TotalSales"}, records[0])

	got := map[string]float64{}
	for _, r := range records[1:] {
		v, err := strconv.ParseFloat(r[1], 64)
		require.NoError(t, err)
		got[r[0]] = v
	}
	assert.Equal(t, map[string]float64{"Amazon": 800, "Foot Locker": 700, "Walmart": 800}, got)
	assert.Equal(t, []string{"retailer-sales.csv"}, obs.names)
}

func TestExportHandlers_MonthlyCSVFiltered(t *testing.T) {
	mux := exportMux(NewExportHandlers(createTestAnalytics(), testLogger(), nil, true))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/monthly-sales.csv?start=2021-01-01&end=2021-12-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="MonthlySales.csv"`, rec.Header().Get("Content-Disposition"))

	body := rec.Body.Bytes()
	require.True(t, bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(body[3:])), "\n")
	assert.Equal(t, []string{"MonthYear,TotalSales", "Jan'21,1300", "Feb'21,300"}, lines)
}

func TestExportHandlers_XLSX(t *testing.T) {
	mux := exportMux(NewExportHandlers(createTestAnalytics(), testLogger(), nil, false))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/retailer-sales.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Retailer", "TotalSales"}, rows[0])
	assert.Equal(t, "Amazon", rows[1][0])
}

func TestExportHandlers_Errors(t *testing.T) {
	mux := exportMux(NewExportHandlers(createTestAnalytics(), testLogger(), nil, false))

	tests := []struct {
		path   string
		status int
	}{
		{"/export/retailer-sales", http.StatusBadRequest},
		{"/export/state-sales.csv", http.StatusNotFound},
		{"/export/retailer-sales.json", http.StatusNotFound},
		{"/export/retailer-sales.csv?end=tomorrow", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, decode(t, rec).Success)
		})
	}
}

func TestPageHandlers_HandleDashboard(t *testing.T) {
	h := NewPageHandlers(createTestAnalytics(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Adidas Sales Dashboard")
	assert.Contains(t, body, `value="2021-01-01"`)
	assert.Contains(t, body, `value="2023-01-01"`)
	assert.Contains(t, body, "/export/monthly-sales.xlsx")
	for _, s := range chartSections {
		assert.Contains(t, body, s.Title)
	}
	for _, s := range tableSections {
		assert.Contains(t, body, `id="`+s.ID+`"`)
	}

	rec = httptest.NewRecorder()
	h.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
