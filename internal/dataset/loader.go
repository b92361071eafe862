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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pgEdge/pgedge-segments/internal/logging"
)

// Source provides the two raw tables.
type Source interface {
	// Identity names the source; equal identities load equal tables.
	Identity() string

	// Tables returns the raw RFM and transaction tables.
	Tables(ctx context.Context) (rfm *Table, transactions *Table, err error)
}

// CSVSource reads both tables from CSV files.
type CSVSource struct {
	RFMPath          string
	TransactionsPath string
}

// Identity returns the file pair.
func (s CSVSource) Identity() string {
	return fmt.Sprintf("csv:%s|%s", s.RFMPath, s.TransactionsPath)
}

// Tables reads both files.
func (s CSVSource) Tables(_ context.Context) (*Table, *Table, error) {
	rfm, err := ReadCSV(s.RFMPath, "rfm_clusters")
	if err != nil {
		return nil, nil, err
	}
	tx, err := ReadCSV(s.TransactionsPath, "online_retail")
	if err != nil {
		return nil, nil, err
	}
	return rfm, tx, nil
}

// Loader memoizes Contexts by source identity. Each identity is loaded at
// most once; concurrent callers wait for the first load and share its result,
// including its error. A load that fails because its context ended is not
// kept, so the next caller loads again.
type Loader struct {
	mu      sync.Mutex
	entries map[string]*loadEntry
}

type loadEntry struct {
	once sync.Once
	ctx  *Context
	err  error
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{entries: make(map[string]*loadEntry)}
}

// Load returns the Context for src, loading it on first use.
func (l *Loader) Load(ctx context.Context, src Source) (*Context, error) {
	id := src.Identity()

	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &loadEntry{}
		l.entries[id] = e
	}
	l.mu.Unlock()

	e.once.Do(func() {
		e.ctx, e.err = load(ctx, id, src)
	})

	// A cancelled caller must not poison the entry for later callers.
	if errors.Is(e.err, context.Canceled) || errors.Is(e.err, context.DeadlineExceeded) {
		l.mu.Lock()
		if l.entries[id] == e {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
	return e.ctx, e.err
}

func load(ctx context.Context, id string, src Source) (*Context, error) {
	logging.Debug().Str("source", id).Msg("Loading tables")

	rfmTable, txTable, err := src.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	dc, err := Build(id, rfmTable, txTable)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("source", id).
		Int("customers", len(dc.RFM)).
		Int("transactions", dc.Clean.Kept).
		Int("dropped_missing", dc.Clean.DroppedMissing).
		Int("dropped_non_positive", dc.Clean.DroppedNonPositive).
		Msg("Loaded tables")
	return dc, nil
}
