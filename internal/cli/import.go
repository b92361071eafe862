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

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/db"
	"github.com/pgEdge/pgedge-segments/internal/logging"
)

var (
	importDrop     bool
	importNoVerify bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the CSV tables into PostgreSQL",
	Long: `Copy the RFM and transaction CSV files into PostgreSQL as raw tables
(rfm_clusters and online_retail), replacing any previous import. Afterwards
the explorer can be run with --source postgres.

The tables are cleaned once before import to catch malformed files early;
pass --no-verify to skip the check.

Example:
  pgedge-segments import --connection postgres://localhost/retail \
      --rfm data/rfm_clusters.csv --transactions data/online_retail.csv`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDrop, "drop", false,
		"drop the imported tables and metadata instead of importing")
	importCmd.Flags().BoolVar(&importNoVerify, "no-verify", false,
		"skip cleaning the tables before import")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if importDrop {
		if cfg.Connection == "" {
			return fmt.Errorf("connection string is required")
		}
		pool, err := db.Connect(ctx, cfg.Connection)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := db.DropTables(ctx, pool); err != nil {
			return err
		}
		logging.Info().Msg("Dropped imported tables")
		return nil
	}

	if err := cfg.ValidateImport(); err != nil {
		return err
	}

	rfm, err := dataset.ReadCSV(cfg.Data.RFMPath, db.RFMTable)
	if err != nil {
		return err
	}
	tx, err := dataset.ReadCSV(cfg.Data.TransactionsPath, db.TransactionsTable)
	if err != nil {
		return err
	}
	if !importNoVerify {
		dc, err := dataset.Build("import", rfm, tx)
		if err != nil {
			return fmt.Errorf("tables failed verification: %w", err)
		}
		logging.Info().
			Int("customers", len(dc.RFM)).
			Int("kept", dc.Clean.Kept).
			Msg("Verified tables")
	}

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return err
	}
	defer pool.Close()

	info := db.ImportInfo{
		RFMSource:          cfg.Data.RFMPath,
		TransactionsSource: cfg.Data.TransactionsPath,
	}
	if err := db.ImportTables(ctx, pool, rfm, tx, info); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d RFM rows and %d transactions into %s\n",
		len(rfm.Records), len(tx.Records), db.Describe(cfg.Connection))
	return nil
}
