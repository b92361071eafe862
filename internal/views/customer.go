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
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pgEdge/pgedge-segments/internal/aggregate"
	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/segments"
)

// Axis padding of the scatter plot, in data units.
const (
	priceAxisPadLow  = 20
	priceAxisPadHigh = 5
	qtyAxisPadLow    = 50000
	qtyAxisPadHigh   = 10
)

// CustomerView is the "Individual Customer View" page.
type CustomerView struct {
	CustomerIDs []int64 `json:"customer_ids"`
	Selected    int64   `json:"selected"`

	Profile        aggregate.CustomerProfile `json:"profile"`
	ClusterMessage string                    `json:"cluster_message"`

	Scatter ScatterView `json:"scatter"`

	// OrderSummary is the markdown order-history text.
	OrderSummary string `json:"order_summary"`
}

// ScatterPoint is one customer on the unit price vs quantity plot.
type ScatterPoint struct {
	CustomerID int64   `json:"customer_id"`
	Country    string  `json:"country"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int64   `json:"quantity"`
	Label      string  `json:"cluster_label"`
	Color      string  `json:"color"`
}

// ScatterView is the segment scatter plot with the selected customer marked.
type ScatterView struct {
	Title  string         `json:"title"`
	Points []ScatterPoint `json:"points"`

	// Highlight is nil when the selected customer has no joined row.
	Highlight *ScatterPoint `json:"highlight"`

	XRange [2]float64 `json:"x_range"`
	YRange [2]float64 `json:"y_range"`
}

type customerView struct{}

func (customerView) Kind() Kind    { return KindCustomer }
func (customerView) Title() string { return "Individual Customer View" }

func (customerView) Description() string {
	return "Customer lookup, cluster assignment, segment scatter plot and order history"
}

func (v customerView) Render(e *Explorer, sel Selection) (ViewModel, error) {
	ids := e.Data.CustomerIDs()

	var selected int64
	switch {
	case sel.CustomerID != nil:
		selected = *sel.CustomerID
	case len(ids) > 0:
		selected = ids[0]
	}

	profile := aggregate.LookupCustomer(e.Data, selected)
	cv := &CustomerView{
		CustomerIDs:    ids,
		Selected:       selected,
		Profile:        profile,
		ClusterMessage: clusterMessage(profile),
		Scatter:        buildScatter(e.joined.Rows, selected),
		OrderSummary:   orderSummary(profile),
	}
	return ViewModel{View: KindCustomer, Title: v.Title(), Customer: cv}, nil
}

func clusterMessage(p aggregate.CustomerProfile) string {
	if !p.Clustered() {
		return fmt.Sprintf("Customer %d has no cluster assignment: %s.", p.CustomerID, segments.UnknownLabel)
	}
	return fmt.Sprintf("This customer belongs to Cluster %d: %s.", *p.Cluster, p.ClusterLabel)
}

func buildScatter(rows []aggregate.CustomerAggregate, selected int64) ScatterView {
	sv := ScatterView{
		Title:  "Unit Price vs Quantity by Cluster",
		Points: make([]ScatterPoint, 0, len(rows)),
	}
	for _, r := range rows {
		pt := ScatterPoint{
			CustomerID: r.CustomerID,
			Country:    r.Country,
			UnitPrice:  r.UnitPrice,
			Quantity:   r.Quantity,
			Label:      r.ClusterLabel,
			Color:      segments.Color(r.ClusterLabel),
		}
		sv.Points = append(sv.Points, pt)
		if r.CustomerID == selected {
			highlight := pt
			sv.Highlight = &highlight
		}
	}

	priceMin, priceMax, qtyMin, qtyMax := aggregate.Bounds(rows)
	sv.XRange = [2]float64{priceMin - priceAxisPadLow, priceMax + priceAxisPadHigh}
	sv.YRange = [2]float64{qtyMin - qtyAxisPadLow, qtyMax + qtyAxisPadHigh}
	return sv
}

func orderSummary(p aggregate.CustomerProfile) string {
	h := p.History

	var b strings.Builder
	b.WriteString("**Customer Summary**\n\n")
	fmt.Fprintf(&b, "- This customer is classified as a **%s**.\n", p.ClusterLabel)
	if h.Orders == 0 {
		b.WriteString("- There are no recorded orders for this customer.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "- They are based in **%s**, and have placed **%d orders**.\n", h.Country, h.Orders)
	fmt.Fprintf(&b, "- In total, they purchased **%d items** and spent approximately **£%s**.\n",
		h.Items, formatMoney(h.TotalSpent))
	fmt.Fprintf(&b, "- Their average unit price is **£%.2f** per item.\n", h.AvgUnitPrice)
	fmt.Fprintf(&b, "- Their purchases span from **%s to %s**.\n", h.FirstPurchase, h.LastPurchase)
	return b.String()
}

var moneyPrinter = message.NewPrinter(language.English)

// formatMoney renders an amount with two decimals and thousands separators.
func formatMoney(d decimal.Decimal) string {
	return moneyPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// OrderRows returns the raw order table of a customer view.
func (cv *CustomerView) OrderRows() []dataset.Transaction {
	return cv.Profile.Transactions
}

func init() {
	Register(customerView{})
}
