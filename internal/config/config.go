// Package config loads NewsHub settings from an optional YAML file, the
// environment (NEWSHUB_ prefix) and built-in defaults, in that order of
// precedence after any bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/oshoup521/NewsHub/internal/database"
	"github.com/oshoup521/NewsHub/internal/httpclient"
	"github.com/oshoup521/NewsHub/internal/logger"
	"github.com/oshoup521/NewsHub/internal/pipeline"
	"github.com/oshoup521/NewsHub/internal/retrofit"
)

// EnvPrefix namespaces environment overrides, e.g. NEWSHUB_DATABASE_DSN.
const EnvPrefix = "NEWSHUB"

// Default values.
const (
	DefaultConfigName = "config"
	DefaultDSN        = "newshub.sqlite"
)

// Config is the complete application configuration.
type Config struct {
	Database database.Config   `mapstructure:"database"`
	Fetcher  httpclient.Config `mapstructure:"fetcher"`
	Pipeline pipeline.Config   `mapstructure:"pipeline"`
	Retrofit retrofit.Config   `mapstructure:"retrofit"`
	Logging  logger.Config     `mapstructure:"logging"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
}

// MetricsConfig controls the end-of-run metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives the run's metrics in node_exporter
	// textfile format.
	Textfile string `mapstructure:"textfile"`
}

// NewViper returns a viper instance with defaults and environment binding
// in place. Callers may bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the configuration. An explicit path must exist; otherwise
// ./config.yml is read if present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &LoadError{File: path, Err: err}
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &LoadError{File: DefaultConfigName + ".yml", Err: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		return &ValidationError{Field: "database.driver", Value: c.Database.Driver, Reason: "must be sqlite3 or postgres"}
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return &ValidationError{Field: "database.dsn", Value: c.Database.DSN, Reason: "must not be empty"}
	}
	if c.Fetcher.Timeout <= 0 {
		return &ValidationError{Field: "fetcher.timeout", Value: c.Fetcher.Timeout, Reason: "must be positive"}
	}
	if c.Pipeline.Concurrency < 1 {
		return &ValidationError{Field: "pipeline.concurrency", Value: c.Pipeline.Concurrency, Reason: "must be at least 1"}
	}
	if c.Retrofit.Limit < 1 {
		return &ValidationError{Field: "retrofit.limit", Value: c.Retrofit.Limit, Reason: "must be at least 1"}
	}
	if c.Retrofit.Delay < 0 {
		return &ValidationError{Field: "retrofit.delay", Value: c.Retrofit.Delay, Reason: "must not be negative"}
	}
	switch c.Logging.Format {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		return &ValidationError{Field: "logging.format", Value: c.Logging.Format, Reason: "must be json or console"}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.dsn", DefaultDSN)
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", database.DefaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", database.DefaultConnMaxLifetime)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("fetcher.user_agent", httpclient.DefaultUserAgent)
	v.SetDefault("fetcher.timeout", httpclient.DefaultTimeout)

	v.SetDefault("pipeline.concurrency", pipeline.DefaultConcurrency)

	v.SetDefault("retrofit.user_agent", retrofit.DefaultUserAgent)
	v.SetDefault("retrofit.limit", retrofit.DefaultLimit)
	v.SetDefault("retrofit.delay", retrofit.DefaultDelay)
	v.SetDefault("retrofit.publishers", retrofit.DefaultPublishers)

	v.SetDefault("logging.level", logger.DefaultLevel)
	v.SetDefault("logging.format", logger.DefaultFormat)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", []string{"stderr"})

	v.SetDefault("metrics.textfile", "")
}
