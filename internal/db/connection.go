//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package db stores the raw explorer tables in PostgreSQL and reads them back.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-segments/internal/logging"
)

// PoolSettings are the connection pool defaults applied by Connect.
type PoolSettings struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolSettings returns the pool defaults. The explorer only reads its
// tables once per process, so the pool is small.
func DefaultPoolSettings() PoolSettings {
	return PoolSettings{
		MaxConns:          4,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// Apply copies the settings onto a parsed pool config.
func (s PoolSettings) Apply(config *pgxpool.Config) {
	config.MaxConns = s.MaxConns
	config.MinConns = min(s.MinConns, s.MaxConns)
	config.MaxConnLifetime = s.MaxConnLifetime
	config.MaxConnIdleTime = s.MaxConnIdleTime
	config.HealthCheckPeriod = s.HealthCheckPeriod
}

// ParseConfig parses a connection string and applies the default pool settings.
func ParseConfig(connString string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	DefaultPoolSettings().Apply(config)
	return config, nil
}

// Connect establishes a connection pool to the PostgreSQL database.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Str("host", config.ConnConfig.Host).
		Uint16("port", config.ConnConfig.Port).
		Str("database", config.ConnConfig.Database).
		Int32("max_conns", config.MaxConns).
		Msg("Connecting to database")

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Msg("Connected to database")

	return pool, nil
}

// Describe returns "host:port/database" for a connection string, without
// credentials, or "" if it cannot be parsed.
func Describe(connString string) string {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return ""
	}
	c := config.ConnConfig
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}
