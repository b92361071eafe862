//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package aggregate computes the summaries behind the dashboard views.
// Every function is a pure function of its inputs.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
)

var (
	// ErrInvalidPercentile is returned for a percentile outside [0, 100].
	ErrInvalidPercentile = errors.New("percentile out of range")

	// ErrUnknownColumn is returned for a column that cannot be filtered.
	ErrUnknownColumn = errors.New("unknown column")
)

// DistributionColumns are the transaction columns the distribution viewer
// offers, in display order.
var DistributionColumns = []string{
	dataset.ColTotalPrice,
	dataset.ColQuantity,
	dataset.ColUnitPrice,
}

// ColumnValue returns the named numeric column of a transaction.
func ColumnValue(column string) (func(dataset.Transaction) float64, error) {
	switch column {
	case dataset.ColTotalPrice:
		return func(t dataset.Transaction) float64 { return t.TotalPrice }, nil
	case dataset.ColQuantity:
		return func(t dataset.Transaction) float64 { return float64(t.Quantity) }, nil
	case dataset.ColUnitPrice:
		return func(t dataset.Transaction) float64 { return t.UnitPrice }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Quantile returns the q-th quantile (0 ≤ q ≤ 1) using linear interpolation
// between closest ranks, position (n-1)·q. It returns NaN for no values.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := float64(n-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
