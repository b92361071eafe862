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
	"github.com/pgEdge/pgedge-segments/internal/aggregate"
	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/logging"
)

// Options controls view defaults.
type Options struct {
	DefaultColumn     string
	DefaultPercentile float64
	HistogramBins     int
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		DefaultColumn:     dataset.ColTotalPrice,
		DefaultPercentile: 90,
		HistogramBins:     100,
	}
}

// Explorer holds a data context and the aggregates that do not depend on the
// selection. It is read-only after construction and safe for concurrent use.
type Explorer struct {
	Data    *dataset.Context
	Options Options

	clusters  []aggregate.ClusterSummaryRow
	joined    aggregate.JoinResult
	countries []aggregate.CountryOrders
	boxes     map[string][]aggregate.BoxPlot
}

// NewExplorer precomputes the selection-independent aggregates.
func NewExplorer(dc *dataset.Context, opts Options) *Explorer {
	defaults := DefaultOptions()
	if opts.DefaultColumn == "" {
		opts.DefaultColumn = defaults.DefaultColumn
	}
	if opts.DefaultPercentile == 0 {
		opts.DefaultPercentile = defaults.DefaultPercentile
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = defaults.HistogramBins
	}

	e := &Explorer{
		Data:      dc,
		Options:   opts,
		clusters:  aggregate.ClusterSummary(dc.RFM),
		joined:    aggregate.JoinClusters(aggregate.CustomerAggregates(dc.Transactions), dc.RFM),
		countries: aggregate.OrdersByCountry(dc.Transactions),
		boxes:     make(map[string][]aggregate.BoxPlot, len(aggregate.RFMMetrics)),
	}
	for _, metric := range aggregate.RFMMetrics {
		// RFMMetrics only names known metrics.
		boxes, _ := aggregate.BoxStats(dc.RFM, metric)
		e.boxes[metric] = boxes
	}

	if e.joined.Unclustered > 0 {
		logging.Warn().
			Int("customers", e.joined.Unclustered).
			Msg("Customers with transactions but no cluster row are excluded from the scatter view")
	}
	return e
}

// ClusterSummary returns the per-segment summary rows.
func (e *Explorer) ClusterSummary() []aggregate.ClusterSummaryRow {
	return e.clusters
}

// Joined returns the customer aggregates joined with cluster rows.
func (e *Explorer) Joined() aggregate.JoinResult {
	return e.joined
}
