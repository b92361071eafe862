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
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/views"
)

var (
	customerJSON   bool
	customerOrders int
)

var customerCmd = &cobra.Command{
	Use:   "customer [id]",
	Short: "Look up one customer's cluster and order history",
	Long: `Print the Individual Customer View for one customer: the cluster
assignment, an order-history summary and the most recent order lines.
Without an id the first customer of the RFM table is shown.

Example:
  pgedge-segments customer 12347
  pgedge-segments customer 12347 --orders 0 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCustomer,
}

func init() {
	customerCmd.Flags().BoolVar(&customerJSON, "json", false,
		"print the view model as JSON")
	customerCmd.Flags().IntVar(&customerOrders, "orders", 20,
		"number of order lines to print (0 = all)")

	rootCmd.AddCommand(customerCmd)
}

func runCustomer(cmd *cobra.Command, args []string) error {
	sel := views.Selection{View: views.KindCustomer}
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid customer id %q: must be an integer", args[0])
		}
		sel.CustomerID = &id
	}

	e, cleanup, err := loadExplorer(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	vm, err := views.Render(e, sel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if customerJSON {
		return writeJSON(out, vm)
	}
	printCustomer(out, vm.Customer, customerOrders)
	return nil
}

func printCustomer(w io.Writer, cv *views.CustomerView, limit int) {
	fmt.Fprintf(w, "Customer %d\n", cv.Selected)
	fmt.Fprintln(w, cv.ClusterMessage)
	fmt.Fprintln(w)
	fmt.Fprint(w, cv.OrderSummary)

	rows := cv.OrderRows()
	if len(rows) == 0 {
		return
	}
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[len(rows)-limit:]
	}
	fmt.Fprintf(w, "\nOrders (%d of %d lines)\n", len(shown), len(rows))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	printRow(tw, []string{"InvoiceNo", "InvoiceDate", "StockCode", "Description", "Quantity", "UnitPrice", "Total_price"})
	for _, t := range shown {
		printRow(tw, []string{
			t.InvoiceNo,
			t.InvoiceDate.Format("2006-01-02 15:04"),
			t.StockCode,
			t.Description,
			strconv.FormatInt(t.Quantity, 10),
			fmt.Sprintf("%.2f", t.UnitPrice),
			fmt.Sprintf("%.2f", t.TotalPrice),
		})
	}
	_ = tw.Flush()
}
