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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-segments/internal/segments"
)

// invoiceDateLayouts are tried in order when parsing InvoiceDate.
var invoiceDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02",
}

// naTokens are the values read as missing, matching the default NA markers of
// common dataframe CSV readers. Matching is case-sensitive.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw field holds a missing value.
func IsMissing(v string) bool {
	_, ok := naTokens[strings.TrimSpace(v)]
	return ok
}

// CleanTransactions turns the raw transaction table into typed rows.
//
// The index column is ignored, rows with a missing field are dropped, and
// rows whose total price is not positive are dropped. A value that is present
// but cannot be parsed aborts cleaning: the table is malformed.
func CleanTransactions(t *Table) ([]Transaction, CleanStats, error) {
	var stats CleanStats

	idx, err := t.Require(TransactionColumns...)
	if err != nil {
		return nil, stats, err
	}

	// Every non-index column takes part in the missing-value check.
	var checked []int
	for i, h := range t.Header {
		if !isIndexColumn(h) {
			checked = append(checked, i)
		}
	}

	out := make([]Transaction, 0, len(t.Records))
	for n, rec := range t.Records {
		stats.Rows++
		row := n + 2 // header is line 1

		if hasMissing(rec, checked) {
			stats.DroppedMissing++
			continue
		}

		qty, err := parseInt(rec[idx[ColQuantity]])
		if err != nil {
			return nil, stats, malformed(t.Name, row, ColQuantity, rec[idx[ColQuantity]])
		}
		price, err := parseFloat(rec[idx[ColUnitPrice]])
		if err != nil {
			return nil, stats, malformed(t.Name, row, ColUnitPrice, rec[idx[ColUnitPrice]])
		}
		customer, err := parseInt(rec[idx[ColCustomerID]])
		if err != nil {
			return nil, stats, malformed(t.Name, row, ColCustomerID, rec[idx[ColCustomerID]])
		}
		when, err := parseInvoiceDate(rec[idx[ColInvoiceDate]])
		if err != nil {
			return nil, stats, malformed(t.Name, row, ColInvoiceDate, rec[idx[ColInvoiceDate]])
		}

		total := float64(qty) * price
		if !(total > 0) {
			stats.DroppedNonPositive++
			continue
		}

		out = append(out, Transaction{
			InvoiceNo:   strings.TrimSpace(rec[idx[ColInvoiceNo]]),
			StockCode:   strings.TrimSpace(rec[idx[ColStockCode]]),
			Description: strings.TrimSpace(rec[idx[ColDescription]]),
			Quantity:    qty,
			InvoiceDate: when,
			UnitPrice:   price,
			CustomerID:  customer,
			Country:     strings.TrimSpace(rec[idx[ColCountry]]),
			TotalPrice:  total,
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// AnnotateRFM parses the RFM table and attaches cluster labels.
func AnnotateRFM(t *Table) ([]CustomerRFM, error) {
	idx, err := t.Require(RFMColumns...)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]int, len(t.Records))
	out := make([]CustomerRFM, 0, len(t.Records))
	for n, rec := range t.Records {
		row := n + 2

		var r CustomerRFM
		if r.CustomerID, err = parseInt(rec[idx[ColCustomerID]]); err != nil {
			return nil, malformed(t.Name, row, ColCustomerID, rec[idx[ColCustomerID]])
		}
		if r.Recency, err = parseFloat(rec[idx[ColRecency]]); err != nil {
			return nil, malformed(t.Name, row, ColRecency, rec[idx[ColRecency]])
		}
		if r.Frequency, err = parseFloat(rec[idx[ColFrequency]]); err != nil {
			return nil, malformed(t.Name, row, ColFrequency, rec[idx[ColFrequency]])
		}
		if r.Monetary, err = parseFloat(rec[idx[ColMonetary]]); err != nil {
			return nil, malformed(t.Name, row, ColMonetary, rec[idx[ColMonetary]])
		}
		cluster, err := parseInt(rec[idx[ColCluster]])
		if err != nil {
			return nil, malformed(t.Name, row, ColCluster, rec[idx[ColCluster]])
		}
		r.Cluster = int(cluster)
		r.ClusterLabel = segments.Label(r.Cluster)

		if first, dup := seen[r.CustomerID]; dup {
			return nil, fmt.Errorf("%s: %w: %d on lines %d and %d",
				t.Name, ErrDuplicateCustomer, r.CustomerID, first, row)
		}
		seen[r.CustomerID] = row
		out = append(out, r)
	}
	return out, nil
}

func hasMissing(rec []string, cols []int) bool {
	for _, i := range cols {
		if i >= len(rec) {
			return true
		}
		if IsMissing(rec[i]) {
			return true
		}
	}
	return false
}

func malformed(table string, row int, col, value string) error {
	return fmt.Errorf("%s line %d: %w in %s: %q", table, row, ErrMalformedValue, col, value)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

// parseInt accepts integers written as floats ("17850.0"), as produced by
// dataframes with missing values in an integer column.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}

func parseInvoiceDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date: %q", s)
}
