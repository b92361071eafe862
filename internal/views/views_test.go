//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package views

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/segments"
)

func fixtureExplorer(t *testing.T) *Explorer {
	t.Helper()

	day := time.Date(2011, 2, 1, 12, 0, 0, 0, time.UTC)
	line := func(invoice string, customer, qty int64, price float64, country string, when time.Time) dataset.Transaction {
		return dataset.Transaction{
			InvoiceNo: invoice, StockCode: "S", Description: "d",
			Quantity: qty, InvoiceDate: when, UnitPrice: price,
			CustomerID: customer, Country: country, TotalPrice: float64(qty) * price,
		}
	}
	label := func(id int64, monetary float64, cluster int) dataset.CustomerRFM {
		return dataset.CustomerRFM{
			CustomerID: id, Recency: 10, Frequency: 2, Monetary: monetary,
			Cluster: cluster, ClusterLabel: segments.Label(cluster),
		}
	}

	tx := []dataset.Transaction{
		line("100", 1, 2, 10, "United Kingdom", day),
		line("100", 1, 3, 10, "United Kingdom", day),
		line("101", 1, 5, 20, "France", day.AddDate(0, 2, 0)),
		line("200", 2, 40, 1.25, "Germany", day),
		line("300", 9, 1, 3, "Spain", day),
	}
	rfm := []dataset.CustomerRFM{
		label(1, 150, 1),
		label(2, 100, 0),
		label(3, 200, 0),
	}
	return NewExplorer(dataset.NewContext("fixture", rfm, tx, dataset.CleanStats{Kept: len(tx)}), Options{})
}

func float(v float64) *float64 { return &v }
func id(v int64) *int64        { return &v }

func TestRegistry(t *testing.T) {
	all := All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 views, got %d", len(all))
	}
	if all[0].Kind() != KindSummary || all[1].Kind() != KindCustomer {
		t.Errorf("Expected summary then customer, got %s, %s", all[0].Kind(), all[1].Kind())
	}
	for _, v := range all {
		if v.Title() == "" || v.Description() == "" {
			t.Errorf("View %s should have a title and description", v.Kind())
		}
	}

	if _, err := Get("nonexistent"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("Expected ErrUnknownView, got %v", err)
	}
}

func TestRenderDefaultsToSummary(t *testing.T) {
	vm, err := Render(fixtureExplorer(t), Selection{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if vm.View != KindSummary || vm.Summary == nil || vm.Customer != nil {
		t.Fatalf("Expected only a summary view model, got %+v", vm)
	}

	d := vm.Summary.Distribution
	if d.Column != dataset.ColTotalPrice || d.Percentile != 90 {
		t.Errorf("Expected default Total_price at 90, got %s at %v", d.Column, d.Percentile)
	}
	if d.Total != 5 || d.Kept > d.Total {
		t.Errorf("Unexpected distribution counts: %d of %d", d.Kept, d.Total)
	}
	if len(d.Bins) == 0 || len(d.Bins) > 100 {
		t.Errorf("Expected between 1 and 100 bins, got %d", len(d.Bins))
	}
}

func TestSummaryView(t *testing.T) {
	vm, err := Render(fixtureExplorer(t), Selection{View: KindSummary, Column: dataset.ColQuantity, Percentile: float(100)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	sv := vm.Summary

	if sv.Distribution.Kept != 5 {
		t.Errorf("Expected P=100 to keep all 5 rows, got %d", sv.Distribution.Kept)
	}

	if len(sv.Clusters) != 2 {
		t.Fatalf("Expected 2 cluster rows, got %d", len(sv.Clusters))
	}
	bargain := sv.Clusters[0]
	if bargain.Label != "Bargain Shoppers" || bargain.MeanMonetary != 150 || bargain.Customers != 2 {
		t.Errorf("Unexpected bargain row: %+v", bargain)
	}
	if sv.ClustersDisplay[0]["Monetary"] != "$150" {
		t.Errorf("Expected formatted '$150', got '%s'", sv.ClustersDisplay[0]["Monetary"])
	}

	if len(sv.Boxes) != 3 {
		t.Fatalf("Expected 3 box plot panels, got %d", len(sv.Boxes))
	}
	wantMetrics := []string{"Monetary", "Recency", "Frequency"}
	for i, want := range wantMetrics {
		if sv.Boxes[i].Metric != want {
			t.Errorf("Panel %d: expected %s, got %s", i, want, sv.Boxes[i].Metric)
		}
	}

	if len(sv.Countries.Rows) != 4 {
		t.Errorf("Expected 4 countries, got %d", len(sv.Countries.Rows))
	}
	if len(sv.Countries.Ticks) != 6 || sv.Countries.Ticks[3].Text != "1K+" {
		t.Errorf("Unexpected colour bar ticks: %+v", sv.Countries.Ticks)
	}

	if sv.Unclustered != 1 {
		t.Errorf("Expected 1 unclustered customer, got %d", sv.Unclustered)
	}
}

func TestSummaryViewInvalidSelection(t *testing.T) {
	e := fixtureExplorer(t)
	tests := []struct {
		name string
		sel  Selection
	}{
		{"unknown column", Selection{View: KindSummary, Column: "Country"}},
		{"percentile below slider", Selection{View: KindSummary, Percentile: float(40)}},
		{"percentile above slider", Selection{View: KindSummary, Percentile: float(101)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Render(e, tt.sel); !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("Expected ErrInvalidSelection, got %v", err)
			}
		})
	}
}

func TestCustomerView(t *testing.T) {
	vm, err := Render(fixtureExplorer(t), Selection{View: KindCustomer, CustomerID: id(1)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if vm.Customer == nil || vm.Summary != nil {
		t.Fatalf("Expected only a customer view model, got %+v", vm)
	}
	cv := vm.Customer

	if len(cv.CustomerIDs) != 3 || cv.CustomerIDs[0] != 1 {
		t.Errorf("Expected RFM ids in table order, got %v", cv.CustomerIDs)
	}

	h := cv.Profile.History
	if h.Orders != 2 || h.Items != 10 || !h.TotalSpent.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Unexpected history: %+v", h)
	}
	if h.FirstPurchase != "Feb 2011" || h.LastPurchase != "Apr 2011" {
		t.Errorf("Unexpected purchase span: %s to %s", h.FirstPurchase, h.LastPurchase)
	}
	if cv.ClusterMessage != "This customer belongs to Cluster 1: High-Spenders." {
		t.Errorf("Unexpected cluster message: %s", cv.ClusterMessage)
	}
	if len(cv.OrderRows()) != 3 {
		t.Errorf("Expected 3 order rows, got %d", len(cv.OrderRows()))
	}

	for _, want := range []string{"**High-Spenders**", "**United Kingdom**", "**2 orders**", "**10 items**", "£150.00", "£13.33"} {
		if !strings.Contains(cv.OrderSummary, want) {
			t.Errorf("Expected order summary to contain %q:\n%s", want, cv.OrderSummary)
		}
	}

	sc := cv.Scatter
	if len(sc.Points) != 2 {
		t.Errorf("Expected 2 scatter points (customer 9 is unclustered), got %d", len(sc.Points))
	}
	if sc.Highlight == nil || sc.Highlight.CustomerID != 1 {
		t.Fatalf("Expected customer 1 highlighted, got %+v", sc.Highlight)
	}
	if sc.XRange[0] != 1.25-20 || math.Abs(sc.XRange[1]-(40.0/3+5)) > 1e-9 {
		t.Errorf("Unexpected x range: %v", sc.XRange)
	}
	if sc.YRange[0] != 10-50000 || sc.YRange[1] != 40+10 {
		t.Errorf("Unexpected y range: %v", sc.YRange)
	}
}

func TestCustomerViewDefaultsToFirstCustomer(t *testing.T) {
	vm, err := Render(fixtureExplorer(t), Selection{View: KindCustomer})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if vm.Customer.Selected != 1 {
		t.Errorf("Expected first customer selected, got %d", vm.Customer.Selected)
	}
}

func TestCustomerViewDegradesGracefully(t *testing.T) {
	e := fixtureExplorer(t)

	// In the RFM table, no transactions.
	vm, err := Render(e, Selection{View: KindCustomer, CustomerID: id(3)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	cv := vm.Customer
	if cv.Profile.History.Orders != 0 || len(cv.Profile.Transactions) != 0 {
		t.Errorf("Expected empty history, got %+v", cv.Profile.History)
	}
	if cv.Scatter.Highlight != nil {
		t.Error("Expected no highlight for a customer without transactions")
	}
	if !strings.Contains(cv.OrderSummary, "no recorded orders") {
		t.Errorf("Expected no-orders summary, got:\n%s", cv.OrderSummary)
	}

	// Transactions, but not in the RFM table.
	vm, err = Render(e, Selection{View: KindCustomer, CustomerID: id(9)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	cv = vm.Customer
	if cv.Profile.ClusterLabel != segments.UnknownLabel {
		t.Errorf("Expected '%s', got '%s'", segments.UnknownLabel, cv.Profile.ClusterLabel)
	}
	if !strings.Contains(cv.ClusterMessage, segments.UnknownLabel) {
		t.Errorf("Expected cluster message to mention unknown cluster, got %s", cv.ClusterMessage)
	}
	if cv.Profile.History.Orders != 1 {
		t.Errorf("Expected 1 order, got %d", cv.Profile.History.Orders)
	}

	// Neither.
	vm, err = Render(e, Selection{View: KindCustomer, CustomerID: id(424242)})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if vm.Customer.Profile.Clustered() {
		t.Error("Unknown customer should not be clustered")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.NewFromInt(0), "0.00"},
		{decimal.NewFromFloat(150), "150.00"},
		{decimal.NewFromFloat(1234.5), "1,234.50"},
		{decimal.NewFromFloat(77183.6), "77,183.60"},
		{decimal.NewFromInt(1234567), "1,234,567.00"},
		{decimal.NewFromFloat(-1000.126), "-1,000.13"},
		{decimal.RequireFromString("1234567.891"), "1,234,567.89"},
		{decimal.RequireFromString("999.995"), "1,000.00"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
