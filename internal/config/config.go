// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	EDGAR        EDGARConfig        `yaml:"edgar" mapstructure:"edgar"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Aggregator   AggregatorConfig   `yaml:"aggregator" mapstructure:"aggregator"`
	Parsers      ParsersConfig      `yaml:"parsers" mapstructure:"parsers"`
	Relationship RelationshipConfig `yaml:"relationship" mapstructure:"relationship"`
	AI           AIConfig           `yaml:"ai" mapstructure:"ai"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the profile document store.
type StoreConfig struct {
	URI                string `yaml:"uri" mapstructure:"uri"`
	Database           string `yaml:"database" mapstructure:"database"`
	ProfilesCollection string `yaml:"profiles_collection" mapstructure:"profiles_collection"`
}

// EDGARConfig configures the SEC EDGAR client. Contact is required: SEC
// fair-access rules demand an identifying User-Agent on every request.
type EDGARConfig struct {
	Contact       string  `yaml:"contact" mapstructure:"contact"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// CacheConfig configures the on-disk filing cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	MaxBytes int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	Dir      string `yaml:"dir" mapstructure:"dir"`
}

// AggregatorConfig configures the profile aggregation engine.
type AggregatorConfig struct {
	TaskWorkers         int `yaml:"task_workers" mapstructure:"task_workers"`
	TickerConcurrency   int `yaml:"ticker_concurrency" mapstructure:"ticker_concurrency"`
	TaskTimeoutSec      int `yaml:"task_timeout_sec" mapstructure:"task_timeout_sec"`
	LookbackYears       int `yaml:"lookback_years" mapstructure:"lookback_years"`
	ProgressIntervalSec int `yaml:"progress_interval_sec" mapstructure:"progress_interval_sec"`
}

// ParsersConfig caps per-parser filing detail.
type ParsersConfig struct {
	Form4Max           int `yaml:"form4_max" mapstructure:"form4_max"`
	DEF14AMax          int `yaml:"def14a_max" mapstructure:"def14a_max"`
	SC13Max            int `yaml:"sc13_max" mapstructure:"sc13_max"`
	ReportsPerForm     int `yaml:"reports_per_form" mapstructure:"reports_per_form"`
	ActiveWindowMonths int `yaml:"active_window_months" mapstructure:"active_window_months"`
}

// RelationshipConfig configures the relationship extractor.
type RelationshipConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	MinConfidence  float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	DirectoryPath  string  `yaml:"directory_path" mapstructure:"directory_path"`
}

// AIConfig configures the optional profile analyzer. Disabled means the
// ai_analysis key is absent from profiles.
type AIConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Model    string `yaml:"model" mapstructure:"model"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EDGARPROFILER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "edgar_profiler")
	v.SetDefault("store.profiles_collection", "unified_profiles")
	v.SetDefault("edgar.contact", "")
	v.SetDefault("edgar.rate_per_second", 10)
	v.SetDefault("edgar.max_retries", 3)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_bytes", int64(2)<<30)
	v.SetDefault("cache.dir", "./cache/filings")
	v.SetDefault("aggregator.task_workers", 8)
	v.SetDefault("aggregator.ticker_concurrency", 4)
	v.SetDefault("aggregator.task_timeout_sec", 60)
	v.SetDefault("aggregator.lookback_years", 5)
	v.SetDefault("aggregator.progress_interval_sec", 15)
	v.SetDefault("parsers.form4_max", 100)
	v.SetDefault("parsers.def14a_max", 10)
	v.SetDefault("parsers.sc13_max", 50)
	v.SetDefault("parsers.reports_per_form", 2)
	v.SetDefault("parsers.active_window_months", 24)
	v.SetDefault("relationship.fuzzy_threshold", 0.82)
	v.SetDefault("relationship.min_confidence", 0.50)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "llama3.1")
	v.SetDefault("ai.endpoint", "http://localhost:11434")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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

// Validate checks startup-fatal configuration. An empty EDGAR contact is a
// configuration error: the client refuses to start without one.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EDGAR.Contact) == "" {
		return eris.New("config: edgar.contact is required (operator name + email)")
	}
	if c.Cache.MaxBytes <= 0 {
		return eris.New("config: cache.max_bytes must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
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
