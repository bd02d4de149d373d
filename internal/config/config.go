package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocode      GeocodeConfig      `yaml:"geocode" mapstructure:"geocode"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Records      RecordsConfig      `yaml:"records" mapstructure:"records"`
	SpecialCases SpecialCasesConfig `yaml:"special_cases" mapstructure:"special_cases"`
	Pipeline     PipelineConfig     `yaml:"pipeline" mapstructure:"pipeline"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Monitoring   MonitoringConfig   `yaml:"monitoring" mapstructure:"monitoring"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig configures the Nominatim provider client.
type GeocodeConfig struct {
	BaseURL             string      `yaml:"base_url" mapstructure:"base_url"`
	UserAgent           string      `yaml:"user_agent" mapstructure:"user_agent"`
	ContactInfo         string      `yaml:"contact_info" mapstructure:"contact_info"`
	RequestIntervalSecs float64     `yaml:"request_interval_secs" mapstructure:"request_interval_secs"`
	RequestTimeoutSecs  float64     `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	Retry               RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures retries of a single provider call.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// CacheConfig selects and configures the coordinate cache backend.
type CacheConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"`
	Path           string `yaml:"path" mapstructure:"path"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	ExpirationDays int    `yaml:"expiration_days" mapstructure:"expiration_days"`
}

// RecordsConfig locates the per-date record files.
type RecordsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// SpecialCasesConfig configures the special-case handler.
type SpecialCasesConfig struct {
	Denylist  []string `yaml:"denylist" mapstructure:"denylist"`
	RulesFile string   `yaml:"rules_file" mapstructure:"rules_file"`
}

// PipelineConfig tunes the pipeline driver.
type PipelineConfig struct {
	Days                    int `yaml:"days" mapstructure:"days"`
	LogDescriptionMaxLength int `yaml:"log_description_max_length" mapstructure:"log_description_max_length"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port       int     `yaml:"port" mapstructure:"port"`
	ResolveRPS float64 `yaml:"resolve_rps" mapstructure:"resolve_rps"`
}

// MonitoringConfig configures failure-rate alerting.
type MonitoringConfig struct {
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LookbackDays         int     `yaml:"lookback_days" mapstructure:"lookback_days"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Cache drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads config.yaml from the working directory (if present), applies
// NEWSGEO_* environment overrides and fills in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NEWSGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "WorldNewsMapBot/1.0")
	v.SetDefault("geocode.contact_info", "")
	v.SetDefault("geocode.request_interval_secs", 1)
	v.SetDefault("geocode.request_timeout_secs", 10)
	v.SetDefault("geocode.retry.max_attempts", 1)
	v.SetDefault("geocode.retry.initial_backoff_ms", 1000)
	v.SetDefault("geocode.retry.max_backoff_ms", 30000)
	v.SetDefault("geocode.retry.multiplier", 1.0)
	v.SetDefault("cache.driver", DriverFile)
	v.SetDefault("cache.path", "cache/coordinate.json")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.expiration_days", 7)
	v.SetDefault("records.dir", "public/news")
	v.SetDefault("special_cases.denylist", []string{"outer space", "cyberspace"})
	v.SetDefault("special_cases.rules_file", "")
	v.SetDefault("pipeline.days", 7)
	v.SetDefault("pipeline.log_description_max_length", 15)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.resolve_rps", 1.0)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.lookback_days", 7)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. All problems are
// reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "geocode", "resolve":
		errs = append(errs, c.validateGeocode()...)
		errs = append(errs, c.validateCache()...)
	case "cache", "status", "export":
		errs = append(errs, c.validateCache()...)
	case "serve":
		errs = append(errs, c.validateGeocode()...)
		errs = append(errs, c.validateCache()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.ResolveRPS <= 0 {
			errs = append(errs, "server.resolve_rps must be > 0")
		}
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			errs = append(errs, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateGeocode() []string {
	var errs []string
	if c.Geocode.BaseURL == "" {
		errs = append(errs, "geocode.base_url is required")
	}
	if c.Geocode.RequestTimeoutSecs <= 0 {
		errs = append(errs, "geocode.request_timeout_secs must be > 0")
	}
	if c.Geocode.RequestIntervalSecs < 0 {
		errs = append(errs, "geocode.request_interval_secs must be >= 0")
	}
	return errs
}

func (c *Config) validateCache() []string {
	drivers := []string{DriverFile, DriverSQLite, DriverPostgres}
	if !slices.Contains(drivers, c.Cache.Driver) {
		return []string{fmt.Sprintf("cache.driver must be one of %s", strings.Join(drivers, ", "))}
	}
	var errs []string
	if c.Cache.Driver == DriverPostgres && c.Cache.DatabaseURL == "" {
		errs = append(errs, "cache.database_url is required for the postgres driver")
	}
	if c.Cache.Driver != DriverPostgres && c.Cache.Path == "" {
		errs = append(errs, "cache.path is required")
	}
	return errs
}

// InitLogger builds a zap logger from cfg and installs it as the global
// logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
