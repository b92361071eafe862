//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-segments.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pgEdge/pgedge-segments/internal/aggregate"
	"github.com/pgEdge/pgedge-segments/internal/views"
)

// FileName is the config file name without extension.
const FileName = "pgedge-segments"

// Data sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config holds all configuration for pgedge-segments.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Source selects where the tables are read from: csv or postgres.
	Source string `mapstructure:"source" yaml:"source"`

	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection" yaml:"connection"`

	Data     DataConfig     `mapstructure:"data" yaml:"data"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Views    ViewsConfig    `mapstructure:"views" yaml:"views"`
	Generate GenerateConfig `mapstructure:"generate" yaml:"generate"`
}

// DataConfig locates the CSV tables.
type DataConfig struct {
	// RFMPath is the RFM table with cluster assignments.
	RFMPath string `mapstructure:"rfm_path" yaml:"rfm_path"`

	// TransactionsPath is the raw transaction table.
	TransactionsPath string `mapstructure:"transactions_path" yaml:"transactions_path"`
}

// ServerConfig holds configuration for the serve subcommand.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ViewsConfig holds dashboard defaults.
type ViewsConfig struct {
	// DefaultColumn is the initial distribution column.
	DefaultColumn string `mapstructure:"default_column" yaml:"default_column"`

	// DefaultPercentile is the initial slider position (50-100).
	DefaultPercentile float64 `mapstructure:"default_percentile" yaml:"default_percentile"`

	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
}

// GenerateConfig holds configuration for the generate subcommand.
type GenerateConfig struct {
	Customers int `mapstructure:"customers" yaml:"customers"`

	// Seed makes generated data reproducible. 0 picks a random seed.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`

	// MissingCustomerRate is the share of invoices without a customer id.
	MissingCustomerRate float64 `mapstructure:"missing_customer_rate" yaml:"missing_customer_rate"`

	// CancellationRate is the share of cancelled invoices.
	CancellationRate float64 `mapstructure:"cancellation_rate" yaml:"cancellation_rate"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Source:   SourceCSV,
		Data: DataConfig{
			RFMPath:          "data/rfm_clusters.csv",
			TransactionsPath: "data/online_retail.csv",
		},
		Server: ServerConfig{
			Addr:            ":8050",
			ShutdownTimeout: 10 * time.Second,
		},
		Views: ViewsConfig{
			DefaultColumn:     "Total_price",
			DefaultPercentile: 90,
			HistogramBins:     100,
		},
		Generate: GenerateConfig{
			Customers:           500,
			Seed:                42,
			MissingCustomerRate: 0.2,
			CancellationRate:    0.02,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-segments.yaml
// 3. ~/.config/pgedge-segments/pgedge-segments.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", FileName))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// A missing default file is fine; a missing explicit file is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration as YAML. An existing file is only replaced
// when overwrite is set.
func (c *Config) Save(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks that the data source is fully configured.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if c.Data.RFMPath == "" || c.Data.TransactionsPath == "" {
			return fmt.Errorf("data.rfm_path and data.transactions_path are required for the csv source")
		}
	case SourcePostgres:
		if c.Connection == "" {
			return fmt.Errorf("connection string is required for the postgres source")
		}
	default:
		return fmt.Errorf("source must be '%s' or '%s', got '%s'", SourceCSV, SourcePostgres, c.Source)
	}
	return c.ValidateViews()
}

// ValidateViews checks the dashboard defaults.
func (c *Config) ValidateViews() error {
	if !slices.Contains(aggregate.DistributionColumns, c.Views.DefaultColumn) {
		return fmt.Errorf("views.default_column must be one of %v", aggregate.DistributionColumns)
	}
	if c.Views.DefaultPercentile < views.MinPercentile || c.Views.DefaultPercentile > views.MaxPercentile {
		return fmt.Errorf("views.default_percentile must be between %d and %d",
			views.MinPercentile, views.MaxPercentile)
	}
	if c.Views.HistogramBins < 1 {
		return fmt.Errorf("views.histogram_bins must be at least 1")
	}
	return nil
}

// ValidateServe checks configuration required for the serve command.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

// ValidateImport checks configuration required for the import command,
// which reads CSV files and writes them to PostgreSQL.
func (c *Config) ValidateImport() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required for import")
	}
	if c.Data.RFMPath == "" || c.Data.TransactionsPath == "" {
		return fmt.Errorf("data.rfm_path and data.transactions_path are required for import")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.Customers < 1 {
		return fmt.Errorf("generate.customers must be at least 1")
	}
	if c.Generate.MissingCustomerRate < 0 || c.Generate.MissingCustomerRate >= 1 {
		return fmt.Errorf("generate.missing_customer_rate must be in [0, 1)")
	}
	if c.Generate.CancellationRate < 0 || c.Generate.CancellationRate >= 1 {
		return fmt.Errorf("generate.cancellation_rate must be in [0, 1)")
	}
	if c.Data.RFMPath == "" || c.Data.TransactionsPath == "" {
		return fmt.Errorf("data.rfm_path and data.transactions_path are required for generate")
	}
	return nil
}
