//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-segments/internal/logging"
	"github.com/pgEdge/pgedge-segments/pkg/version"
)

const metadataTable = "segments_metadata"

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS segments_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// Execer runs statements. Both *pgxpool.Pool and pgx.Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ImportInfo describes one import of the explorer tables.
type ImportInfo struct {
	RFMSource          string
	TransactionsSource string

	// Set by ImportTables.
	RFMRows         int64
	TransactionRows int64
}

func (i ImportInfo) values() map[string]string {
	return map[string]string{
		"version":             version.Short(),
		"imported_at":         time.Now().UTC().Format(time.RFC3339),
		"rfm_source":          i.RFMSource,
		"transactions_source": i.TransactionsSource,
		"rfm_rows":            strconv.FormatInt(i.RFMRows, 10),
		"transaction_rows":    strconv.FormatInt(i.TransactionRows, 10),
	}
}

// SaveMetadata records an import in the metadata table.
func SaveMetadata(ctx context.Context, conn Execer, info ImportInfo) error {
	if _, err := conn.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	for key, value := range info.values() {
		_, err := conn.Exec(ctx, `
            INSERT INTO segments_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Str("rfm_source", info.RFMSource).
		Str("transactions_source", info.TransactionsSource).
		Msg("Saved metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM segments_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, `SELECT key, value FROM segments_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}
