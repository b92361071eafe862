//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package segments maps the offline cluster ids to display names and colours.
package segments

// UnknownLabel is returned for any cluster id outside the fixed set.
const UnknownLabel = "Unknown Cluster"

// UnknownColor is used for rows whose cluster id has no label.
const UnknownColor = "#7F7F7F"

// Segment describes one of the fixed customer segments.
type Segment struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// The four segments produced by the offline K-Means run, in canonical order.
var segments = []Segment{
	{ID: 0, Label: "Bargain Shoppers", Color: "#636EFA",
		Description: "Low spend, price-sensitive occasional buyers"},
	{ID: 1, Label: "High-Spenders", Color: "#EF553B",
		Description: "Recent, frequent customers with the highest monetary value"},
	{ID: 2, Label: "Moderate Spenders", Color: "#00CC96",
		Description: "Regular customers with mid-range order values"},
	{ID: 3, Label: "Business Buyers", Color: "#AB63FA",
		Description: "Bulk purchasers ordering large quantities"},
}

// All returns the fixed segments in canonical order.
func All() []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

// Label returns the display name for a cluster id, or UnknownLabel.
func Label(id int) string {
	if s, ok := lookup(id); ok {
		return s.Label
	}
	return UnknownLabel
}

// Known reports whether the cluster id belongs to the fixed set.
func Known(id int) bool {
	_, ok := lookup(id)
	return ok
}

// Color returns the display colour for a label.
func Color(label string) string {
	for _, s := range segments {
		if s.Label == label {
			return s.Color
		}
	}
	return UnknownColor
}

// Rank orders labels canonically: the fixed segments by id, then UnknownLabel.
// Labels that are not recognised sort after UnknownLabel.
func Rank(label string) int {
	for i, s := range segments {
		if s.Label == label {
			return i
		}
	}
	if label == UnknownLabel {
		return len(segments)
	}
	return len(segments) + 1
}

func lookup(id int) (Segment, bool) {
	if id < 0 || id >= len(segments) {
		return Segment{}, false
	}
	return segments[id], true
}
