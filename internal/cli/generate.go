//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/datagen"
)

var (
	genCustomers  int
	genSeed       uint64
	genNoProgress bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic retail dataset",
	Long: `Generate an online retail transaction CSV and a matching RFM CSV.
Transactions include anonymous invoices and cancellations, as in the real
dataset. Cluster ids come from each customer's generated purchasing profile;
no clustering is performed.

The files are written to the configured --rfm and --transactions paths.

Example:
  pgedge-segments generate --customers 2000 --seed 7
  pgedge-segments generate --rfm /tmp/rfm.csv --transactions /tmp/retail.csv`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&genCustomers, "customers", 0,
		"number of identified customers")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible output")
	generateCmd.Flags().BoolVar(&genNoProgress, "no-progress", false,
		"disable the progress bar")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genCustomers > 0 {
		cfg.Generate.Customers = genCustomers
	}
	if cmd.Flags().Changed("seed") {
		cfg.Generate.Seed = genSeed
	}
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	opts := datagen.DefaultOptions()
	opts.Customers = cfg.Generate.Customers
	opts.Seed = cfg.Generate.Seed
	opts.MissingCustomerRate = cfg.Generate.MissingCustomerRate
	opts.CancellationRate = cfg.Generate.CancellationRate
	if !genNoProgress {
		opts.Progress = cmd.ErrOrStderr()
	}

	ds, err := datagen.Generate(cmd.Context(), opts)
	if err != nil {
		return err
	}

	for _, p := range []string{cfg.Data.RFMPath, cfg.Data.TransactionsPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	if err := ds.WriteFiles(cfg.Data.RFMPath, cfg.Data.TransactionsPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions to %s and %d RFM rows to %s\n",
		len(ds.Transactions.Records), cfg.Data.TransactionsPath,
		len(ds.RFM.Records), cfg.Data.RFMPath)
	return nil
}
