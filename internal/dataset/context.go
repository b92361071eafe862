//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package dataset

import (
	"fmt"
	"time"
)

// Context is the read-only data every view is computed from.
// It is built once and must not be modified afterwards.
type Context struct {
	// Source identifies where the tables were loaded from.
	Source   string
	LoadedAt time.Time

	Transactions []Transaction
	RFM          []CustomerRFM
	Clean        CleanStats

	rfmByCustomer map[int64]int
	txByCustomer  map[int64][]int
}

// NewContext indexes cleaned tables by customer id.
func NewContext(source string, rfm []CustomerRFM, tx []Transaction, stats CleanStats) *Context {
	c := &Context{
		Source:        source,
		LoadedAt:      time.Now().UTC(),
		Transactions:  tx,
		RFM:           rfm,
		Clean:         stats,
		rfmByCustomer: make(map[int64]int, len(rfm)),
		txByCustomer:  make(map[int64][]int),
	}
	for i, r := range rfm {
		c.rfmByCustomer[r.CustomerID] = i
	}
	for i, t := range tx {
		c.txByCustomer[t.CustomerID] = append(c.txByCustomer[t.CustomerID], i)
	}
	return c
}

// Build cleans both raw tables and returns a Context.
func Build(source string, rfmTable, txTable *Table) (*Context, error) {
	rfm, err := AnnotateRFM(rfmTable)
	if err != nil {
		return nil, fmt.Errorf("rfm table: %w", err)
	}
	tx, stats, err := CleanTransactions(txTable)
	if err != nil {
		return nil, fmt.Errorf("transaction table: %w", err)
	}
	return NewContext(source, rfm, tx, stats), nil
}

// Customer returns the RFM row for a customer.
func (c *Context) Customer(id int64) (CustomerRFM, bool) {
	i, ok := c.rfmByCustomer[id]
	if !ok {
		return CustomerRFM{}, false
	}
	return c.RFM[i], true
}

// TransactionsFor returns a customer's transactions in table order.
// The result is a fresh slice; it is empty when the customer has no history.
func (c *Context) TransactionsFor(id int64) []Transaction {
	rows := c.txByCustomer[id]
	out := make([]Transaction, 0, len(rows))
	for _, i := range rows {
		out = append(out, c.Transactions[i])
	}
	return out
}

// CustomerIDs returns the RFM customer ids in table order.
func (c *Context) CustomerIDs() []int64 {
	ids := make([]int64, len(c.RFM))
	for i, r := range c.RFM {
		ids[i] = r.CustomerID
	}
	return ids
}

// LabelledRFMTable renders the RFM rows, with their labels, as a raw table.
func (c *Context) LabelledRFMTable() *Table {
	t := &Table{
		Name:   "rfm_clusters",
		Header: append(append([]string{}, RFMColumns...), "Cluster_Label"),
	}
	for _, r := range c.RFM {
		t.Records = append(t.Records, []string{
			fmt.Sprintf("%d", r.CustomerID),
			formatNumber(r.Recency),
			formatNumber(r.Frequency),
			formatNumber(r.Monetary),
			fmt.Sprintf("%d", r.Cluster),
			r.ClusterLabel,
		})
	}
	return t
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}
