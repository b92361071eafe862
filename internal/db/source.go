//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
)

// Source reads the explorer tables from PostgreSQL. It implements
// dataset.Source.
type Source struct {
	Pool *pgxpool.Pool

	// ConnString identifies the database for memoization. It is not used to
	// connect.
	ConnString string
}

// Identity returns "postgres:" followed by the host, port and database.
func (s *Source) Identity() string {
	return "postgres:" + Describe(s.ConnString)
}

// Tables reads the RFM and transaction tables.
func (s *Source) Tables(ctx context.Context) (*dataset.Table, *dataset.Table, error) {
	if s.Pool == nil {
		return nil, nil, fmt.Errorf("postgres source has no connection pool")
	}
	rfm, err := ReadTable(ctx, s.Pool, RFMTable)
	if err != nil {
		return nil, nil, err
	}
	tx, err := ReadTable(ctx, s.Pool, TransactionsTable)
	if err != nil {
		return nil, nil, err
	}
	return rfm, tx, nil
}
