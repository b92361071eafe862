//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/segments"
)

// MonthLayout formats purchase months ("Dec 2010").
const MonthLayout = "Jan 2006"

// OrderHistory summarises one customer's transactions.
type OrderHistory struct {
	Orders       int             `json:"total_orders"`
	Items        int64           `json:"total_items"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	AvgUnitPrice float64         `json:"avg_unit_price"`

	// Empty when there is no history.
	FirstPurchase string `json:"first_purchase"`
	LastPurchase  string `json:"last_purchase"`
	Country       string `json:"country"`
}

// CustomerProfile is everything the customer view shows about one customer.
type CustomerProfile struct {
	CustomerID int64 `json:"customer_id"`

	// RFM is nil when the customer is not in the RFM table.
	RFM          *dataset.CustomerRFM `json:"rfm"`
	Cluster      *int                 `json:"cluster"`
	ClusterLabel string               `json:"cluster_label"`

	Transactions []dataset.Transaction `json:"transactions"`
	History      OrderHistory          `json:"history"`
}

// Clustered reports whether the customer has an RFM row.
func (p CustomerProfile) Clustered() bool {
	return p.RFM != nil
}

// LookupCustomer assembles a customer's profile. Unknown customers are not an
// error: the label becomes "Unknown Cluster" and the history is empty.
func LookupCustomer(dc *dataset.Context, id int64) CustomerProfile {
	p := CustomerProfile{
		CustomerID:   id,
		ClusterLabel: segments.UnknownLabel,
		Transactions: dc.TransactionsFor(id),
	}
	if r, ok := dc.Customer(id); ok {
		p.RFM = &r
		cluster := r.Cluster
		p.Cluster = &cluster
		p.ClusterLabel = segments.Label(r.Cluster)
	}
	p.History = SummarizeOrders(p.Transactions)
	return p
}

// SummarizeOrders derives the order history of a set of transactions.
func SummarizeOrders(tx []dataset.Transaction) OrderHistory {
	h := OrderHistory{TotalSpent: decimal.Zero}
	if len(tx) == 0 {
		return h
	}

	invoices := make(map[string]struct{})
	var prices float64
	first, last := tx[0].InvoiceDate, tx[0].InvoiceDate
	for _, t := range tx {
		invoices[t.InvoiceNo] = struct{}{}
		h.Items += t.Quantity
		h.TotalSpent = h.TotalSpent.Add(
			decimal.NewFromInt(t.Quantity).Mul(decimal.NewFromFloat(t.UnitPrice)))
		prices += t.UnitPrice
		if t.InvoiceDate.Before(first) {
			first = t.InvoiceDate
		}
		if t.InvoiceDate.After(last) {
			last = t.InvoiceDate
		}
	}

	h.Orders = len(invoices)
	h.AvgUnitPrice = prices / float64(len(tx))
	h.FirstPurchase = formatMonth(first)
	h.LastPurchase = formatMonth(last)
	h.Country = tx[0].Country
	return h
}

func formatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}
