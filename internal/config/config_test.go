package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, "Adidas.xlsx", cfg.Data.File)
	assert.Equal(t, 30*time.Second, cfg.Data.LoadTimeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, []string{"http://localhost:8084"}, cfg.Security.AllowedOrigins)

	r, err := cfg.Data.DefaultRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), r.End)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DASHBOARD_SERVER_PORT", "9090")
	t.Setenv("DASHBOARD_DATA_FILE", "/data/sales.csv")
	t.Setenv("DASHBOARD_DATA_DEFAULT_START", "2022-01-01")
	t.Setenv("DASHBOARD_LOG_FORMAT", "text")
	t.Setenv("DASHBOARD_SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/sales.csv", cfg.Data.File)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"port out of range", "DASHBOARD_SERVER_PORT", "70000", "Port"},
		{"unknown level", "DASHBOARD_LOG_LEVEL", "verbose", "Level"},
		{"bad default date", "DASHBOARD_DATA_DEFAULT_END", "01/01/2023", "DefaultEnd"},
		{"unknown exporter", "DASHBOARD_TELEMETRY_TRACE_EXPORTER", "jaeger", "TraceExporter"},
		{"sample ratio", "DASHBOARD_TELEMETRY_SAMPLE_RATIO", "1.5", "SampleRatio"},
		{"not a duration", "DASHBOARD_SERVER_READ_TIMEOUT", "soon", "read environment"},
		{"inverted default range", "DASHBOARD_DATA_DEFAULT_START", "2024-01-01", "after default end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
