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
	"fmt"
	"sort"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/segments"
)

// ClusterSummaryRow holds the mean RFM values of one segment.
type ClusterSummaryRow struct {
	Label         string  `json:"cluster_label"`
	MeanRecency   float64 `json:"recency"`
	MeanFrequency float64 `json:"frequency"`
	MeanMonetary  float64 `json:"monetary"`
	Customers     int     `json:"num_customers"`
}

// ClusterSummary groups RFM rows by cluster label. Only labels that occur are
// returned, in canonical segment order.
func ClusterSummary(rfm []dataset.CustomerRFM) []ClusterSummaryRow {
	type acc struct {
		recency, frequency, monetary float64
		n                            int
	}
	groups := make(map[string]*acc)
	for _, r := range rfm {
		a, ok := groups[r.ClusterLabel]
		if !ok {
			a = &acc{}
			groups[r.ClusterLabel] = a
		}
		a.recency += r.Recency
		a.frequency += r.Frequency
		a.monetary += r.Monetary
		a.n++
	}

	out := make([]ClusterSummaryRow, 0, len(groups))
	for _, label := range sortedLabels(groups) {
		a := groups[label]
		n := float64(a.n)
		out = append(out, ClusterSummaryRow{
			Label:         label,
			MeanRecency:   a.recency / n,
			MeanFrequency: a.frequency / n,
			MeanMonetary:  a.monetary / n,
			Customers:     a.n,
		})
	}
	return out
}

// Formatted returns the row's values as displayed in the summary table.
func (r ClusterSummaryRow) Formatted() map[string]string {
	return map[string]string{
		"Cluster_Label": r.Label,
		"Recency":       fmt.Sprintf("%.1f", r.MeanRecency),
		"Frequency":     fmt.Sprintf("%.1f", r.MeanFrequency),
		"Monetary":      fmt.Sprintf("$%.0f", r.MeanMonetary),
		"Num Customers": fmt.Sprintf("%d", r.Customers),
	}
}

// BoxPlot holds the five-number summary of one segment for one metric.
// Whiskers reach the furthest values within 1.5·IQR of the quartiles.
type BoxPlot struct {
	Label      string    `json:"cluster_label"`
	Color      string    `json:"color"`
	Count      int       `json:"count"`
	Min        float64   `json:"min"`
	Q1         float64   `json:"q1"`
	Median     float64   `json:"median"`
	Q3         float64   `json:"q3"`
	Max        float64   `json:"max"`
	LowerFence float64   `json:"lower_fence"`
	UpperFence float64   `json:"upper_fence"`
	Outliers   []float64 `json:"outliers"`
}

// RFMMetrics are the box plot metrics in display order.
var RFMMetrics = []string{dataset.ColMonetary, dataset.ColRecency, dataset.ColFrequency}

// RFMValue returns the named metric of an RFM row.
func RFMValue(metric string) (func(dataset.CustomerRFM) float64, error) {
	switch metric {
	case dataset.ColRecency:
		return func(r dataset.CustomerRFM) float64 { return r.Recency }, nil
	case dataset.ColFrequency:
		return func(r dataset.CustomerRFM) float64 { return r.Frequency }, nil
	case dataset.ColMonetary:
		return func(r dataset.CustomerRFM) float64 { return r.Monetary }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, metric)
	}
}

// BoxStats computes one box per segment for the given RFM metric.
func BoxStats(rfm []dataset.CustomerRFM, metric string) ([]BoxPlot, error) {
	value, err := RFMValue(metric)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]float64)
	for _, r := range rfm {
		groups[r.ClusterLabel] = append(groups[r.ClusterLabel], value(r))
	}

	out := make([]BoxPlot, 0, len(groups))
	for _, label := range sortedLabels(groups) {
		vals := groups[label]
		sort.Float64s(vals)

		box := BoxPlot{
			Label:    label,
			Color:    segments.Color(label),
			Count:    len(vals),
			Min:      vals[0],
			Max:      vals[len(vals)-1],
			Q1:       quantileSorted(vals, 0.25),
			Median:   quantileSorted(vals, 0.5),
			Q3:       quantileSorted(vals, 0.75),
			Outliers: []float64{},
		}
		iqr := box.Q3 - box.Q1
		lowLimit := box.Q1 - 1.5*iqr
		highLimit := box.Q3 + 1.5*iqr
		box.LowerFence, box.UpperFence = box.Q1, box.Q3
		for _, v := range vals {
			if v < lowLimit || v > highLimit {
				box.Outliers = append(box.Outliers, v)
				continue
			}
			box.LowerFence = min(box.LowerFence, v)
			box.UpperFence = max(box.UpperFence, v)
		}
		out = append(out, box)
	}
	return out, nil
}

func sortedLabels[V any](groups map[string]V) []string {
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, rj := segments.Rank(labels[i]), segments.Rank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})
	return labels
}
