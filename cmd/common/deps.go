// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/oshoup521/NewsHub/internal/config"
	"github.com/oshoup521/NewsHub/internal/logger"
	"github.com/oshoup521/NewsHub/internal/metrics"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger   logger.Logger
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// DepsLoader builds the dependencies for a command invocation.
type DepsLoader func() (*CommandDeps, error)

// Options are the root command's persistent settings.
type Options struct {
	Viper      *viper.Viper
	ConfigFile string
	Verbose    bool
}

// NewCommandDeps loads configuration and builds the logger and metrics
// registry every command shares.
func NewCommandDeps(opts Options) (*CommandDeps, error) {
	cfg, err := config.Load(opts.Viper, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logging
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	reg := prometheus.NewRegistry()

	deps := &CommandDeps{
		Logger:   log,
		Config:   cfg,
		Registry: reg,
		Metrics:  metrics.New(reg),
	}
	return deps, deps.Validate()
}

// Validate ensures all required dependencies are present.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// Finish exports the run's metrics when a textfile is configured and
// flushes the logger.
func (d *CommandDeps) Finish() error {
	defer func() { _ = d.Logger.Sync() }()

	path := d.Config.Metrics.Textfile
	if path == "" {
		return nil
	}

	if err := metrics.WriteTextfile(path, d.Registry); err != nil {
		d.Logger.Error("Failed to write metrics", logger.String("path", path), logger.Error(err))
		return err
	}
	d.Logger.Debug("Wrote metrics", logger.String("path", path))
	return nil
}
