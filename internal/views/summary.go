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
	"fmt"
	"slices"

	"github.com/pgEdge/pgedge-segments/internal/aggregate"
	"github.com/pgEdge/pgedge-segments/internal/dataset"
)

// Percentile slider bounds of the distribution viewer.
const (
	MinPercentile  = 50
	MaxPercentile  = 100
	PercentileStep = 5
)

// SummaryView is the "Summary & EDA" page.
type SummaryView struct {
	Clusters        []aggregate.ClusterSummaryRow `json:"clusters"`
	ClustersDisplay []map[string]string           `json:"clusters_display"`

	Distribution DistributionView `json:"distribution"`
	Countries    ChoroplethView   `json:"countries"`
	Boxes        []BoxPlotPanel   `json:"boxes"`

	Clean       dataset.CleanStats `json:"clean"`
	Unclustered int                `json:"unclustered"`
}

// DistributionView is the histogram of one column clipped at a percentile.
type DistributionView struct {
	aggregate.Distribution
	Title   string          `json:"title"`
	Columns []string        `json:"columns"`
	Slider  PercentileRange `json:"slider"`
	Bins    []aggregate.Bin `json:"bins"`
}

// PercentileRange describes the percentile slider.
type PercentileRange struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// ColorTick labels a point on a colour bar.
type ColorTick struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// ChoroplethView is the orders-by-country map.
type ChoroplethView struct {
	Title      string                    `json:"title"`
	ColorScale string                    `json:"color_scale"`
	Rows       []aggregate.CountryOrders `json:"rows"`
	Ticks      []ColorTick               `json:"ticks"`
}

// orderTicks maps log10 order counts to colour bar labels.
var orderTicks = []ColorTick{
	{0, "1+"}, {1, "10+"}, {2, "100+"}, {3, "1K+"}, {4, "10K+"}, {5, "100K+"},
}

// BoxPlotPanel is one RFM metric broken down by segment.
type BoxPlotPanel struct {
	Metric string              `json:"metric"`
	Title  string              `json:"title"`
	Boxes  []aggregate.BoxPlot `json:"boxes"`
}

var boxTitles = map[string]string{
	dataset.ColMonetary:  "Monetary Value by Cluster",
	dataset.ColRecency:   "Recency by Cluster",
	dataset.ColFrequency: "Frequency by Cluster",
}

type summaryView struct{}

func (summaryView) Kind() Kind    { return KindSummary }
func (summaryView) Title() string { return "Summary & EDA" }

func (summaryView) Description() string {
	return "Cluster summary, distribution viewer, orders by country and RFM box plots"
}

func (v summaryView) Render(e *Explorer, sel Selection) (ViewModel, error) {
	column := sel.Column
	if column == "" {
		column = e.Options.DefaultColumn
	}
	if !slices.Contains(aggregate.DistributionColumns, column) {
		return ViewModel{}, fmt.Errorf("%w: column must be one of %v, got %q",
			ErrInvalidSelection, aggregate.DistributionColumns, column)
	}

	percentile := e.Options.DefaultPercentile
	if sel.Percentile != nil {
		percentile = *sel.Percentile
	}
	if percentile < MinPercentile || percentile > MaxPercentile {
		return ViewModel{}, fmt.Errorf("%w: percentile must be between %d and %d, got %v",
			ErrInvalidSelection, MinPercentile, MaxPercentile, percentile)
	}

	dist, _, err := aggregate.FilterPercentile(e.Data.Transactions, column, percentile)
	if err != nil {
		if errors.Is(err, aggregate.ErrUnknownColumn) || errors.Is(err, aggregate.ErrInvalidPercentile) {
			return ViewModel{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		return ViewModel{}, err
	}

	sv := &SummaryView{
		Clusters:        e.clusters,
		ClustersDisplay: make([]map[string]string, 0, len(e.clusters)),
		Distribution: DistributionView{
			Distribution: dist,
			Title:        fmt.Sprintf("Distribution of %s (≤ %gth Percentile)", column, percentile),
			Columns:      aggregate.DistributionColumns,
			Slider:       PercentileRange{Min: MinPercentile, Max: MaxPercentile, Step: PercentileStep},
			Bins:         aggregate.Histogram(dist.Values, e.Options.HistogramBins),
		},
		Countries: ChoroplethView{
			Title:      "Orders by Country",
			ColorScale: "Turbo",
			Rows:       e.countries,
			Ticks:      orderTicks,
		},
		Clean:       e.Data.Clean,
		Unclustered: e.joined.Unclustered,
	}
	for _, row := range e.clusters {
		sv.ClustersDisplay = append(sv.ClustersDisplay, row.Formatted())
	}
	for _, metric := range aggregate.RFMMetrics {
		sv.Boxes = append(sv.Boxes, BoxPlotPanel{
			Metric: metric,
			Title:  boxTitles[metric],
			Boxes:  e.boxes[metric],
		})
	}

	return ViewModel{View: KindSummary, Title: v.Title(), Summary: sv}, nil
}

func init() {
	Register(summaryView{})
}
