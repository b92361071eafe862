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

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/logging"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the RFM table with cluster labels as CSV",
	Long: `Write the RFM table with a Cluster_Label column to a file, or to
standard output when no --output is given.

Example:
  pgedge-segments export --output rfm_clusters_labelled.csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	e, cleanup, err := loadExplorer(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	table := e.Data.LabelledRFMTable()
	if exportOutput == "" {
		return dataset.WriteCSV(cmd.OutOrStdout(), table)
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOutput, err)
	}
	if err := dataset.WriteCSV(f, table); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logging.Info().
		Str("path", exportOutput).
		Int("rows", len(table.Records)).
		Msg("Exported labelled RFM table")
	return nil
}
