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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/segments"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List the cluster labels and colours",
	Long: `List the fixed mapping from cluster id to segment label, along with
the colour each segment is drawn in. Any other cluster id is shown as
"Unknown Cluster".`,
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		printRow(tw, []string{"Cluster", "Label", "Colour", "Description"})
		for _, s := range segments.All() {
			printRow(tw, []string{fmt.Sprintf("%d", s.ID), s.Label, s.Color, s.Description})
		}
		printRow(tw, []string{"other", segments.UnknownLabel, segments.UnknownColor, ""})
		_ = tw.Flush()
	},
}
