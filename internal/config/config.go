package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/guillermoBallester/dataprofiler/internal/core/domain"
)

// Metrics backends.
const (
	BackendNone       = "none"
	BackendClickHouse = "clickhouse"
	BackendPostgres   = "postgres"
)

// Config is the resolved run configuration. It comes from environment
// variables, or from the YAML file named by DATAPROFILER_CONFIG with
// environment variables taking precedence, and finally from CLI flags.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Metrics MetricsConfig `yaml:"metrics"`
	OTel    OTelConfig    `yaml:"otel"`

	Application string `yaml:"application" env:"DATAPROFILER_APPLICATION" env-default:"default"`
	Environment string `yaml:"environment" env:"DATAPROFILER_ENVIRONMENT" env-default:"dev"`

	// LookbackDays bounds the growth history used for overflow forecasts.
	LookbackDays int `yaml:"lookback_days" env:"DATAPROFILER_LOOKBACK_DAYS" env-default:"7"`
	// Strict is the default comparator mode.
	Strict bool `yaml:"strict" env:"DATAPROFILER_STRICT" env-default:"true"`
	// StoreSchema persists compared snapshots to schema_profiles.
	StoreSchema bool   `yaml:"store_schema" env:"DATAPROFILER_STORE_SCHEMA" env-default:"false"`
	PolicyFile  string `yaml:"policy_file" env:"DATAPROFILER_POLICY_FILE"`
	JournalFile string `yaml:"journal_file" env:"DATAPROFILER_JOURNAL_FILE"`

	LogLevelName string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogLevel     slog.Level `yaml:"-"`
}

// SourceConfig is the database being profiled.
type SourceConfig struct {
	TypeName     string        `yaml:"type" env:"DATAPROFILER_DB_TYPE" env-default:"postgresql"`
	URL          string        `yaml:"-" env:"DATAPROFILER_DB_URL"` // carries credentials
	Schema       string        `yaml:"schema" env:"DATAPROFILER_SCHEMA"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"DATAPROFILER_QUERY_TIMEOUT" env-default:"60s"`

	Type domain.DatabaseType `yaml:"-"`
}

// MetricsConfig selects and addresses the metrics store.
type MetricsConfig struct {
	Backend            string `yaml:"backend" env:"DATAPROFILER_METRICS_BACKEND" env-default:"none"`
	ClickHouseAddr     string `yaml:"clickhouse_addr" env:"CLICKHOUSE_ADDR" env-default:"localhost:9000"`
	ClickHouseDatabase string `yaml:"clickhouse_database" env:"CLICKHOUSE_DATABASE" env-default:"default"`
	ClickHouseUser     string `yaml:"clickhouse_user" env:"CLICKHOUSE_USER" env-default:"default"`
	ClickHousePassword string `yaml:"-" env:"CLICKHOUSE_PASSWORD"`
	PostgresURL        string `yaml:"-" env:"METRICS_PG_URL"`
}

type OTelConfig struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"dataprofiler"`
}

// Overrides holds CLI flag values that override the environment.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	DBType         *string
	DBURL          *string
	Schema         *string
	Application    *string
	Environment    *string
	MetricsBackend *string
	LogLevel       *string
	PolicyFile     *string
	JournalFile    *string
	QueryTimeout   *time.Duration
	LookbackDays   *int
	Strict         *bool
	StoreSchema    *bool
	OTelEnabled    bool
}

// Load reads the environment (and optional YAML file), applies overrides,
// then validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := &Config{}
	if path := os.Getenv("DATAPROFILER_CONFIG"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	applyOverrides(cfg, overrides)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *Config, o Overrides) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.Source.TypeName, o.DBType)
	set(&cfg.Source.URL, o.DBURL)
	set(&cfg.Source.Schema, o.Schema)
	set(&cfg.Application, o.Application)
	set(&cfg.Environment, o.Environment)
	set(&cfg.Metrics.Backend, o.MetricsBackend)
	set(&cfg.LogLevelName, o.LogLevel)
	set(&cfg.PolicyFile, o.PolicyFile)
	set(&cfg.JournalFile, o.JournalFile)

	if o.QueryTimeout != nil {
		cfg.Source.QueryTimeout = *o.QueryTimeout
	}
	if o.LookbackDays != nil {
		cfg.LookbackDays = *o.LookbackDays
	}
	if o.Strict != nil {
		cfg.Strict = *o.Strict
	}
	if o.StoreSchema != nil {
		cfg.StoreSchema = *o.StoreSchema
	}
	cfg.OTel.Enabled = cfg.OTel.Enabled || o.OTelEnabled
}

// validate checks values and fills the parsed fields.
func validate(cfg *Config) error {
	t, err := domain.ParseDatabaseType(cfg.Source.TypeName)
	if err != nil {
		return fmt.Errorf("invalid DATAPROFILER_DB_TYPE: %w", err)
	}
	cfg.Source.Type = t

	level, err := parseLogLevel(cfg.LogLevelName)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	if cfg.LookbackDays <= 0 {
		return fmt.Errorf("invalid DATAPROFILER_LOOKBACK_DAYS value %d: must be a positive integer", cfg.LookbackDays)
	}
	if cfg.Source.QueryTimeout < 0 {
		return fmt.Errorf("invalid DATAPROFILER_QUERY_TIMEOUT value %s: must not be negative", cfg.Source.QueryTimeout)
	}

	cfg.Metrics.Backend = strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	switch cfg.Metrics.Backend {
	case BackendNone, BackendClickHouse:
	case BackendPostgres:
		if cfg.Metrics.PostgresURL == "" {
			return fmt.Errorf("METRICS_PG_URL is required when the metrics backend is %q", BackendPostgres)
		}
	default:
		return fmt.Errorf("invalid DATAPROFILER_METRICS_BACKEND value %q: must be clickhouse, postgres or none", cfg.Metrics.Backend)
	}
	return nil
}

// RequireSource reports a missing source connection. Commands that only
// touch the metrics store skip it.
func (c *Config) RequireSource() error {
	if c.Source.URL == "" {
		return fmt.Errorf("DATAPROFILER_DB_URL is required (set via env var or --db-url flag)")
	}
	return nil
}

// Target is the record identity for results from the configured source.
// Host and database come from the connected engine.
func (c *Config) Target(engine domain.Target) domain.Target {
	engine.Application = c.Application
	engine.Environment = c.Environment
	if c.Source.Schema != "" {
		engine.SchemaName = c.Source.Schema
	}
	return engine
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
