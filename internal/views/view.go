//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package views assembles the dashboard view models.
package views

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Kind identifies one of the dashboard views.
type Kind string

// The dashboard views.
const (
	KindSummary  Kind = "summary"
	KindCustomer Kind = "customer"
)

var (
	// ErrUnknownView is returned for a view name that is not registered.
	ErrUnknownView = errors.New("unknown view")

	// ErrInvalidSelection is returned when selection parameters are out of range.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Selection is the user's current dashboard state.
// Only the fields relevant to View are consulted.
type Selection struct {
	View Kind `json:"view"`

	// Summary view.
	Column     string   `json:"column,omitempty"`
	Percentile *float64 `json:"percentile,omitempty"`

	// Customer view.
	CustomerID *int64 `json:"customer_id,omitempty"`
}

// ViewModel is the result of rendering a selection. Exactly one of Summary
// and Customer is set, matching View.
type ViewModel struct {
	View     Kind          `json:"view"`
	Title    string        `json:"title"`
	Summary  *SummaryView  `json:"summary,omitempty"`
	Customer *CustomerView `json:"customer,omitempty"`
}

// View renders one kind of view model.
type View interface {
	// Kind returns the view identifier.
	Kind() Kind

	// Title returns the navigation title.
	Title() string

	// Description returns a human-readable description.
	Description() string

	// Render computes the view model for the selection.
	Render(e *Explorer, sel Selection) (ViewModel, error)
}

var (
	registry = make(map[Kind]View)
	mu       sync.RWMutex
)

// Register adds a view to the registry.
func Register(v View) {
	mu.Lock()
	defer mu.Unlock()
	registry[v.Kind()] = v
}

// Get retrieves a view by kind.
func Get(kind Kind) (View, error) {
	mu.RLock()
	defer mu.RUnlock()

	v, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, kind)
	}
	return v, nil
}

// All returns the registered views, summary first.
func All() []View {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]View, 0, len(registry))
	for _, v := range registry {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return order(out[i].Kind()) < order(out[j].Kind()) })
	return out
}

func order(k Kind) int {
	switch k {
	case KindSummary:
		return 0
	case KindCustomer:
		return 1
	default:
		return 2
	}
}

// Render dispatches the selection to its view. An empty view kind renders
// the summary view.
func Render(e *Explorer, sel Selection) (ViewModel, error) {
	if sel.View == "" {
		sel.View = KindSummary
	}
	v, err := Get(sel.View)
	if err != nil {
		return ViewModel{}, err
	}
	return v.Render(e, sel)
}
