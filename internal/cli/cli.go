//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-segments.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/config"
	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/db"
	"github.com/pgEdge/pgedge-segments/internal/logging"
	"github.com/pgEdge/pgedge-segments/internal/views"
	"github.com/pgEdge/pgedge-segments/pkg/version"
)

var (
	// Global flags
	cfgFile          string
	source           string
	connection       string
	rfmPath          string
	transactionsPath string
	logLevel         string

	// Global config
	cfg *config.Config

	// loader memoizes loaded tables per source for the life of the process.
	loader = dataset.NewLoader()

	rootCmd = &cobra.Command{
		Use:   "pgedge-segments",
		Short: "Customer segment explorer for RFM-clustered retail data",
		Long: `pgedge-segments loads an online retail transaction table and an RFM
table of customer cluster assignments, cleans them, and serves the
segment explorer views: a cluster summary with distribution, country
and box plot breakdowns, and an individual customer view.

Tables are read from CSV files or from PostgreSQL after 'import'.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-segments.yaml)")
	rootCmd.PersistentFlags().StringVar(&source, "source", "",
		"data source: csv or postgres")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&rfmPath, "rfm", "",
		"path to the RFM cluster CSV")
	rootCmd.PersistentFlags().StringVar(&transactionsPath, "transactions", "",
		"path to the online retail transaction CSV")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(labelsCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if source != "" {
		cfg.Source = source
	}
	if connection != "" {
		cfg.Connection = connection
	}
	if rfmPath != "" {
		cfg.Data.RFMPath = rfmPath
	}
	if transactionsPath != "" {
		cfg.Data.TransactionsPath = transactionsPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// loadExplorer loads the configured tables and builds an Explorer. The
// returned function releases any database connection.
func loadExplorer(ctx context.Context) (*views.Explorer, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		src     dataset.Source
		cleanup = func() {}
	)
	switch cfg.Source {
	case config.SourcePostgres:
		pool, err := db.Connect(ctx, cfg.Connection)
		if err != nil {
			return nil, nil, err
		}
		src = &db.Source{Pool: pool, ConnString: cfg.Connection}
		cleanup = pool.Close
	default:
		src = dataset.CSVSource{
			RFMPath:          cfg.Data.RFMPath,
			TransactionsPath: cfg.Data.TransactionsPath,
		}
	}

	dc, err := loader.Load(ctx, src)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to load data from %s: %w", src.Identity(), err)
	}

	e := views.NewExplorer(dc, views.Options{
		DefaultColumn:     cfg.Views.DefaultColumn,
		DefaultPercentile: cfg.Views.DefaultPercentile,
		HistogramBins:     cfg.Views.HistogramBins,
	})
	return e, cleanup, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}
