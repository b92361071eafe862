//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-segments/internal/logging"
	"github.com/pgEdge/pgedge-segments/internal/server"
)

var (
	serveAddr            string
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer views over HTTP",
	Long: `Load the tables once and serve the explorer views as JSON until
interrupted with Ctrl+C.

Endpoints:
  GET /healthz
  GET /api/views
  GET /api/views/summary?column=Total_price&percentile=90
  GET /api/views/customer?id=12346
  GET /api/customers
  GET /api/export/rfm.csv

Example:
  pgedge-segments serve --rfm data/rfm_clusters.csv --transactions data/online_retail.csv
  pgedge-segments serve --source postgres --connection postgres://localhost/retail --addr :9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default: :8050)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 0,
		"time allowed for in-flight requests on shutdown")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeout = serveShutdownTimeout
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, cleanup, err := loadExplorer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	logging.Info().
		Str("source", e.Data.Source).
		Int("customers", len(e.Data.RFM)).
		Int("transactions", len(e.Data.Transactions)).
		Msg("Explorer ready")

	srv := server.New(e, server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logging.Component("http"))
	return srv.Run(ctx)
}
