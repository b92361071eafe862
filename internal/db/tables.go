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
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/logging"
)

// Table names of the stored datasets.
const (
	RFMTable          = "rfm_clusters"
	TransactionsTable = "online_retail"
)

// rowColumn preserves the source row order of an imported table.
const rowColumn = "_row"

// indexColumnName replaces an empty CSV header, which Postgres cannot store.
const indexColumnName = "Unnamed: 0"

// ErrTableNotFound is returned by ReadTable for a table that was never imported.
var ErrTableNotFound = errors.New("table not found")

// storedColumns maps a CSV header to column names Postgres accepts.
func storedColumns(header []string) ([]string, error) {
	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			h = indexColumnName
		}
		if h == rowColumn {
			return nil, fmt.Errorf("column name %q is reserved", rowColumn)
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
		cols[i] = h
	}
	return cols, nil
}

func createTableSQL(name string, cols []string) string {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, pgx.Identifier{rowColumn}.Sanitize()+" BIGINT PRIMARY KEY")
	for _, c := range cols {
		defs = append(defs, pgx.Identifier{c}.Sanitize()+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		pgx.Identifier{name}.Sanitize(), strings.Join(defs, ",\n    "))
}

// ImportTable replaces table t.Name with the contents of t inside tx. Every
// column is stored as TEXT; empty fields become NULL. The caller commits.
func ImportTable(ctx context.Context, tx pgx.Tx, t *dataset.Table) (int64, error) {
	cols, err := storedColumns(t.Header)
	if err != nil {
		return 0, fmt.Errorf("table %s: %w", t.Name, err)
	}

	ident := pgx.Identifier{t.Name}
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", t.Name, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(t.Name, cols)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	rows := make([][]any, len(t.Records))
	for i, rec := range t.Records {
		row := make([]any, len(cols)+1)
		row[0] = int64(i + 1)
		for j := range cols {
			if j < len(rec) && rec[j] != "" {
				row[j+1] = rec[j]
			}
		}
		rows[i] = row
	}

	copied, err := tx.CopyFrom(ctx, ident, append([]string{rowColumn}, cols...), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s: %w", t.Name, err)
	}

	logging.Debug().
		Str("table", t.Name).
		Int64("rows", copied).
		Int("columns", len(cols)).
		Msg("Copied table")
	return copied, nil
}

// ImportTables imports the RFM and transaction tables under their standard
// names and records the import in the metadata table. Everything happens in
// one transaction: on error the previous import is left untouched.
func ImportTables(ctx context.Context, pool *pgxpool.Pool, rfm, transactions *dataset.Table, info ImportInfo) error {
	rfmCopy := *rfm
	rfmCopy.Name = RFMTable
	txCopy := *transactions
	txCopy.Name = TransactionsTable

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rfmRows, err := ImportTable(ctx, tx, &rfmCopy)
	if err != nil {
		return err
	}
	txRows, err := ImportTable(ctx, tx, &txCopy)
	if err != nil {
		return err
	}

	info.RFMRows = rfmRows
	info.TransactionRows = txRows
	if err := SaveMetadata(ctx, tx, info); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	logging.Info().
		Int64("rfm_rows", rfmRows).
		Int64("transaction_rows", txRows).
		Msg("Imported tables")
	return nil
}

// ReadTable reads an imported table back in row order. NULL becomes "".
func ReadTable(ctx context.Context, pool *pgxpool.Pool, name string) (*dataset.Table, error) {
	exists, err := TableExists(ctx, pool, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	ident := pgx.Identifier{name}.Sanitize()
	rows, err := pool.Query(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY %s",
		ident, pgx.Identifier{rowColumn}.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	t := &dataset.Table{Name: name}
	rowIdx := -1
	for i, fd := range rows.FieldDescriptions() {
		if fd.Name == rowColumn {
			rowIdx = i
			continue
		}
		t.Header = append(t.Header, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", name, err)
		}
		rec := make([]string, 0, len(t.Header))
		for i, v := range values {
			if i == rowIdx {
				continue
			}
			rec = append(rec, textValue(v))
		}
		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	logging.Debug().
		Str("table", name).
		Int("rows", len(t.Records)).
		Msg("Read table")
	return t, nil
}

func textValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// TableExists reports whether a table exists in the current search path.
func TableExists(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`,
		pgx.Identifier{name}.Sanitize()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return exists, nil
}

// DropTables removes the imported tables and the metadata table.
func DropTables(ctx context.Context, pool *pgxpool.Pool) error {
	for _, name := range []string{RFMTable, TransactionsTable} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{name}.Sanitize()); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}
	return DropMetadata(ctx, pool)
}
