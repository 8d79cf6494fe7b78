// Package config loads homesense configuration from config.yaml and
// HOMESENSE_* environment variables, and initializes the global logger.
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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Predict PredictConfig `yaml:"predict" mapstructure:"predict"`
	Planner PlannerConfig `yaml:"planner" mapstructure:"planner"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	APIKey         string   `yaml:"api_key" mapstructure:"api_key"` // empty disables auth
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PredictConfig configures the prediction engine.
type PredictConfig struct {
	ModelVersion    string `yaml:"model_version" mapstructure:"model_version"`
	ReferenceSource string `yaml:"reference_source" mapstructure:"reference_source"` // embedded or store
	ReferencePath   string `yaml:"reference_path" mapstructure:"reference_path"`
}

// PlannerConfig configures the seasonal planner.
type PlannerConfig struct {
	DefaultMonths int     `yaml:"default_months" mapstructure:"default_months"`
	TLCThreshold  float64 `yaml:"tlc_threshold" mapstructure:"tlc_threshold"`
}

// BatchConfig configures batch prediction runs.
type BatchConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HOMESENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("predict.model_version", "systems-v3")
	v.SetDefault("predict.reference_source", "embedded")
	v.SetDefault("predict.reference_path", "")
	v.SetDefault("planner.default_months", 12)
	v.SetDefault("planner.tlc_threshold", 60)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("batch.rate_per_second", 10)

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

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for postgres (HOMESENSE_STORE_DATABASE_URL)")
		}
	case "sqlite":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Store.MinConns > c.Store.MaxConns && c.Store.MaxConns > 0 {
		return eris.Errorf("config: store.min_conns (%d) exceeds store.max_conns (%d)", c.Store.MinConns, c.Store.MaxConns)
	}
	switch c.Predict.ReferenceSource {
	case "embedded", "store":
	default:
		return eris.Errorf("config: unsupported predict.reference_source %q", c.Predict.ReferenceSource)
	}
	if c.Predict.ModelVersion == "" {
		return eris.New("config: predict.model_version is required")
	}
	if c.Planner.DefaultMonths <= 0 {
		return eris.Errorf("config: planner.default_months must be positive, got %d", c.Planner.DefaultMonths)
	}
	if c.Planner.TLCThreshold < 0 || c.Planner.TLCThreshold > 100 {
		return eris.Errorf("config: planner.tlc_threshold must be within [0, 100], got %v", c.Planner.TLCThreshold)
	}
	if c.Batch.MaxConcurrent < 1 {
		return eris.Errorf("config: batch.max_concurrent must be at least 1, got %d", c.Batch.MaxConcurrent)
	}
	if c.Batch.RatePerSecond < 0 {
		return eris.Errorf("config: batch.rate_per_second must not be negative, got %v", c.Batch.RatePerSecond)
	}
	return nil
}

// ValidateServe additionally checks the HTTP settings.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port must be within [1, 65535], got %d", c.Server.Port)
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
