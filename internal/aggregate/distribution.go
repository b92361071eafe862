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
	"math"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
)

// Distribution is the percentile-clipped view of one column.
type Distribution struct {
	Column     string  `json:"column"`
	Percentile float64 `json:"percentile"`
	Cutoff     float64 `json:"cutoff"`
	Total      int     `json:"total"`
	Kept       int     `json:"kept"`

	// Values holds the kept column values in table order.
	Values []float64 `json:"-"`
}

// FilterPercentile keeps the transactions whose column value is at or below
// the given percentile of that column. Rows equal to the cutoff are kept, so
// percentile 100 keeps everything. An empty input yields an empty result.
func FilterPercentile(tx []dataset.Transaction, column string, percentile float64) (Distribution, []dataset.Transaction, error) {
	if math.IsNaN(percentile) || percentile < 0 || percentile > 100 {
		return Distribution{}, nil, fmt.Errorf("%w: %v", ErrInvalidPercentile, percentile)
	}
	value, err := ColumnValue(column)
	if err != nil {
		return Distribution{}, nil, err
	}

	values := make([]float64, len(tx))
	for i, t := range tx {
		values[i] = value(t)
	}

	d := Distribution{
		Column:     column,
		Percentile: percentile,
		Total:      len(tx),
		Values:     []float64{},
	}
	kept := []dataset.Transaction{}
	if len(tx) == 0 {
		return d, kept, nil
	}

	d.Cutoff = Quantile(values, percentile/100)
	for i, v := range values {
		if v <= d.Cutoff {
			kept = append(kept, tx[i])
			d.Values = append(d.Values, v)
		}
	}
	d.Kept = len(kept)
	return d, kept, nil
}

// Bin is one histogram bucket covering [Start, End).
// The last bucket also includes End.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram buckets values into equal-width bins between min and max.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return []Bin{}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Start: lo, End: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Start = lo + float64(i)*width
		out[i].End = lo + float64(i+1)*width
	}
	out[bins-1].End = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
