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

	"github.com/pgEdge/pgedge-segments/internal/config"
)

var (
	configInitPath  string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write the default configuration, with any global flag overrides applied,
to a YAML file that later runs pick up automatically.

Example:
  pgedge-segments config init
  pgedge-segments config init --path ~/.config/pgedge-segments/pgedge-segments.yaml --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Save(configInitPath, configInitForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configInitPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", config.FileName+".yaml",
		"file to write")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false,
		"overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
