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
	"math"
	"sort"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
)

// CustomerAggregate summarises a customer's transactions.
type CustomerAggregate struct {
	CustomerID int64   `json:"customer_id"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Country    string  `json:"country"`

	// Set by JoinClusters.
	Cluster      int    `json:"cluster"`
	ClusterLabel string `json:"cluster_label"`
}

// CustomerAggregates groups transactions by customer: quantities are summed,
// unit prices averaged, and the country is the first one seen in table order.
// Rows are ordered by customer id.
//
// The country is "first wins", not the most frequent country.
func CustomerAggregates(tx []dataset.Transaction) []CustomerAggregate {
	type acc struct {
		qty     int64
		prices  float64
		n       int
		country string
	}
	groups := make(map[int64]*acc)
	for _, t := range tx {
		a, ok := groups[t.CustomerID]
		if !ok {
			a = &acc{country: t.Country}
			groups[t.CustomerID] = a
		}
		a.qty += t.Quantity
		a.prices += t.UnitPrice
		a.n++
	}

	out := make([]CustomerAggregate, 0, len(groups))
	for id, a := range groups {
		out = append(out, CustomerAggregate{
			CustomerID: id,
			Quantity:   a.qty,
			UnitPrice:  a.prices / float64(a.n),
			Country:    a.country,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// JoinResult is the inner join of customer aggregates with cluster rows.
type JoinResult struct {
	Rows []CustomerAggregate `json:"rows"`

	// Unclustered counts customers with transactions but no RFM row.
	// They are dropped from Rows.
	Unclustered int `json:"unclustered"`
}

// JoinClusters attaches cluster assignments to customer aggregates on
// customer id. Customers missing from the RFM table are excluded.
func JoinClusters(aggs []CustomerAggregate, rfm []dataset.CustomerRFM) JoinResult {
	byID := make(map[int64]dataset.CustomerRFM, len(rfm))
	for _, r := range rfm {
		byID[r.CustomerID] = r
	}

	res := JoinResult{Rows: make([]CustomerAggregate, 0, len(aggs))}
	for _, a := range aggs {
		r, ok := byID[a.CustomerID]
		if !ok {
			res.Unclustered++
			continue
		}
		a.Cluster = r.Cluster
		a.ClusterLabel = r.ClusterLabel
		res.Rows = append(res.Rows, a)
	}
	return res
}

// Bounds returns the min and max of UnitPrice and Quantity over rows.
func Bounds(rows []CustomerAggregate) (priceMin, priceMax, qtyMin, qtyMax float64) {
	if len(rows) == 0 {
		return 0, 0, 0, 0
	}
	priceMin, priceMax = math.Inf(1), math.Inf(-1)
	qtyMin, qtyMax = math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		priceMin = math.Min(priceMin, r.UnitPrice)
		priceMax = math.Max(priceMax, r.UnitPrice)
		qtyMin = math.Min(qtyMin, float64(r.Quantity))
		qtyMax = math.Max(qtyMax, float64(r.Quantity))
	}
	return priceMin, priceMax, qtyMin, qtyMax
}

// CountryOrders is the order count of one country on a log10 colour scale.
type CountryOrders struct {
	Country         string  `json:"country"`
	OrderCount      int     `json:"order_count"`
	Log10OrderCount float64 `json:"log10_order_count"`
}

// OrdersByCountry counts invoice lines per country. A zero count is replaced
// by 1 before taking log10, so the scale value is never undefined.
func OrdersByCountry(tx []dataset.Transaction) []CountryOrders {
	counts := make(map[string]int)
	for _, t := range tx {
		counts[t.Country]++
	}

	out := make([]CountryOrders, 0, len(counts))
	for country, n := range counts {
		out = append(out, CountryOrders{
			Country:         country,
			OrderCount:      n,
			Log10OrderCount: Log10Count(n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// Log10Count returns log10(n), treating 0 as 1.
func Log10Count(n int) float64 {
	if n <= 0 {
		n = 1
	}
	return math.Log10(float64(n))
}
