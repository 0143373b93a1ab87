package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"sales-dashboard/internal/models"
)

const (
	envPrefix  = "DASHBOARD"
	DateLayout = "2006-01-02"
)

type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Data      DataConfig      `envconfig:"DATA"`
	Logger    LoggerConfig    `envconfig:"LOG"`
	Security  SecurityConfig  `envconfig:"SECURITY"`
	Telemetry TelemetryConfig `envconfig:"TELEMETRY"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"8084" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`
}

type DataConfig struct {
	File         string        `envconfig:"FILE" default:"Adidas.xlsx" validate:"required"`
	CacheDir     string        `envconfig:"CACHE_DIR" default:".cache"`
	LoadTimeout  time.Duration `envconfig:"LOAD_TIMEOUT" default:"30s" validate:"gt=0"`
	DefaultStart string        `envconfig:"DEFAULT_START" default:"2021-01-01" validate:"datetime=2006-01-02"`
	DefaultEnd   string        `envconfig:"DEFAULT_END" default:"2023-01-01" validate:"datetime=2006-01-02"`
	ExportBOM    bool          `envconfig:"EXPORT_BOM" default:"false"`
}

type LoggerConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS    int      `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"gt=0"`
	RateLimitBurst  int      `envconfig:"RATE_LIMIT_BURST" default:"20" validate:"gt=0"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8084"`
	TrustedProxies  []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1"`
}

type TelemetryConfig struct {
	ServiceName   string  `envconfig:"SERVICE_NAME" default:"sales-dashboard" validate:"required"`
	TraceExporter string  `envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=none stdout"`
	SampleRatio   float64 `envconfig:"SAMPLE_RATIO" default:"1" validate:"gte=0,lte=1"`
	EnableMetrics bool    `envconfig:"METRICS_ENABLED" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	r, err := c.Data.DefaultRange()
	if err != nil {
		return err
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("default start %s is after default end %s", c.Data.DefaultStart, c.Data.DefaultEnd)
	}

	return nil
}

// DefaultRange is the filter window used when a request does not name one.
func (d DataConfig) DefaultRange() (models.DateRange, error) {
	start, err := time.Parse(DateLayout, d.DefaultStart)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("parse default start: %w", err)
	}
	end, err := time.Parse(DateLayout, d.DefaultEnd)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("parse default end: %w", err)
	}
	return models.DateRange{Start: start, End: end}, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
