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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/views"
)

var (
	summaryColumn     string
	summaryPercentile float64
	summaryTop        int
	summaryJSON       bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the cluster summary and exploratory breakdowns",
	Long: `Print the Summary & EDA view: the per-cluster RFM means, the distribution
of one transaction column clipped at a percentile, orders by country, and
the RFM box plot statistics per cluster.

Example:
  pgedge-segments summary --column Quantity --percentile 95
  pgedge-segments summary --json`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryColumn, "column", "",
		"distribution column: Total_price, Quantity, UnitPrice")
	summaryCmd.Flags().Float64Var(&summaryPercentile, "percentile", 0,
		"distribution percentile cutoff (50-100)")
	summaryCmd.Flags().IntVar(&summaryTop, "top", 10,
		"number of countries to list")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false,
		"print the view model as JSON")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	e, cleanup, err := loadExplorer(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	sel := views.Selection{View: views.KindSummary, Column: summaryColumn}
	if cmd.Flags().Changed("percentile") {
		sel.Percentile = &summaryPercentile
	}
	vm, err := views.Render(e, sel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if summaryJSON {
		return writeJSON(out, vm)
	}
	printSummary(out, e, vm.Summary, summaryTop)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, e *views.Explorer, sv *views.SummaryView, top int) {
	fmt.Fprintf(w, "Source: %s (loaded %s)\n", e.Data.Source, e.Data.LoadedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Transactions: %d read, %d dropped for missing values, %d dropped for non-positive totals, %d kept\n",
		sv.Clean.Rows, sv.Clean.DroppedMissing, sv.Clean.DroppedNonPositive, sv.Clean.Kept)
	if sv.Unclustered > 0 {
		fmt.Fprintf(w, "Customers with transactions but no cluster: %d\n", sv.Unclustered)
	}

	fmt.Fprintln(w, "\nCluster Summary")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := []string{"Cluster_Label", "Recency", "Frequency", "Monetary", "Num Customers"}
	printRow(tw, headers)
	for _, row := range sv.ClustersDisplay {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = row[h]
		}
		printRow(tw, cells)
	}
	_ = tw.Flush()

	d := sv.Distribution
	fmt.Fprintf(w, "\n%s\n", d.Title)
	fmt.Fprintf(w, "Cutoff %g keeps %d of %d rows in %d bins\n", d.Cutoff, d.Kept, d.Total, len(d.Bins))

	countries := sv.Countries.Rows
	ranked := slices.Clone(countries)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].OrderCount > ranked[j].OrderCount })
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	fmt.Fprintf(w, "\n%s (%d countries)\n", sv.Countries.Title, len(countries))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	printRow(tw, []string{"Country", "Orders", "log10"})
	for _, c := range ranked {
		printRow(tw, []string{c.Country, fmt.Sprintf("%d", c.OrderCount), fmt.Sprintf("%.2f", c.Log10OrderCount)})
	}
	_ = tw.Flush()

	for _, panel := range sv.Boxes {
		fmt.Fprintf(w, "\n%s\n", panel.Title)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		printRow(tw, []string{"Cluster_Label", "Count", "Min", "Q1", "Median", "Q3", "Max", "Outliers"})
		for _, b := range panel.Boxes {
			printRow(tw, []string{
				b.Label, fmt.Sprintf("%d", b.Count),
				fmt.Sprintf("%.2f", b.Min), fmt.Sprintf("%.2f", b.Q1), fmt.Sprintf("%.2f", b.Median),
				fmt.Sprintf("%.2f", b.Q3), fmt.Sprintf("%.2f", b.Max), fmt.Sprintf("%d", len(b.Outliers)),
			})
		}
		_ = tw.Flush()
	}
}

func printRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
