//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration

// Run with: go test -tags=integration ./internal/db/...
// Requires PostgreSQL to be available.
// Set PGEDGE_TEST_CONN environment variable to override connection string.

package db_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/db"
	"github.com/pgEdge/pgedge-segments/internal/testutil"
)

const retailCSV = `,InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
0,536365,85123A,WHITE HANGING HEART,6,2010-12-01 08:26:00,2.55,17850.0,United Kingdom
1,536366,22633,HAND WARMER,6,2010-12-01 08:28:00,1.85,,United Kingdom
2,C536379,D,Discount,-1,2010-12-01 09:41:00,27.5,14527.0,United Kingdom
3,536370,22728,ALARM CLOCK,24,2010-12-01 08:45:00,3.75,12583.0,France
`

const rfmCSV = `CustomerID,Recency,Frequency,Monetary,Cluster
17850,372,34,5288.63,1
12583,3,17,1500.5,3
`

func TestImportAndLoad(t *testing.T) {
	tdb := testutil.NewTestDB(t, "db")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	retail, err := dataset.DecodeCSV(strings.NewReader(retailCSV), "retail.csv")
	if err != nil {
		t.Fatalf("Failed to decode retail fixture: %v", err)
	}
	rfm, err := dataset.DecodeCSV(strings.NewReader(rfmCSV), "rfm.csv")
	if err != nil {
		t.Fatalf("Failed to decode rfm fixture: %v", err)
	}

	info := db.ImportInfo{RFMSource: "rfm.csv", TransactionsSource: "retail.csv"}
	if err := db.ImportTables(ctx, tdb.Pool, rfm, retail, info); err != nil {
		t.Fatalf("ImportTables failed: %v", err)
	}

	meta, err := db.GetAllMetadata(ctx, tdb.Pool)
	if err != nil {
		t.Fatalf("GetAllMetadata failed: %v", err)
	}
	if meta["transaction_rows"] != "4" || meta["rfm_rows"] != "2" {
		t.Errorf("Unexpected metadata: %v", meta)
	}

	back, err := db.ReadTable(ctx, tdb.Pool, db.TransactionsTable)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(back.Header) != len(retail.Header) || back.Header[0] != "Unnamed: 0" {
		t.Errorf("Unexpected header: %v", back.Header)
	}
	if len(back.Records) != 4 || back.Records[3][2] != "22728" {
		t.Errorf("Expected rows in import order, got %v", back.Records)
	}
	if back.Records[1][7] != "" {
		t.Errorf("Expected a NULL customer id to read back as empty, got %q", back.Records[1][7])
	}

	src := &db.Source{Pool: tdb.Pool, ConnString: tdb.ConnString}
	dc, err := dataset.NewLoader().Load(ctx, src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if dc.Clean.Kept != 2 || dc.Clean.DroppedMissing != 1 || dc.Clean.DroppedNonPositive != 1 {
		t.Errorf("Unexpected clean stats: %+v", dc.Clean)
	}
	if r, ok := dc.Customer(12583); !ok || r.ClusterLabel != "Business Buyers" {
		t.Errorf("Expected customer 12583 as Business Buyers, got %+v", r)
	}
}

func TestImportTablesRollsBackOnFailure(t *testing.T) {
	tdb := testutil.NewTestDB(t, "rollback")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	retail, err := dataset.DecodeCSV(strings.NewReader(retailCSV), "retail.csv")
	if err != nil {
		t.Fatalf("Failed to decode retail fixture: %v", err)
	}
	rfm, err := dataset.DecodeCSV(strings.NewReader(rfmCSV), "rfm.csv")
	if err != nil {
		t.Fatalf("Failed to decode rfm fixture: %v", err)
	}
	first := db.ImportInfo{RFMSource: "rfm.csv", TransactionsSource: "retail.csv"}
	if err := db.ImportTables(ctx, tdb.Pool, rfm, retail, first); err != nil {
		t.Fatalf("ImportTables failed: %v", err)
	}

	// The new RFM table is valid; the transaction table fails part way.
	newRFM := &dataset.Table{
		Header:  append([]string{}, rfm.Header...),
		Records: [][]string{{"99999", "1", "1", "10", "0"}},
	}
	broken := &dataset.Table{
		Header:  []string{"InvoiceNo", "InvoiceNo"},
		Records: [][]string{{"1", "2"}},
	}
	second := db.ImportInfo{RFMSource: "new_rfm.csv", TransactionsSource: "broken.csv"}
	if err := db.ImportTables(ctx, tdb.Pool, newRFM, broken, second); err == nil {
		t.Fatal("Expected ImportTables to fail on a duplicate column")
	}

	back, err := db.ReadTable(ctx, tdb.Pool, db.RFMTable)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if len(back.Records) != 2 || back.Records[0][0] != "17850" {
		t.Errorf("Expected the previous RFM table to survive, got %v", back.Records)
	}

	meta, err := db.GetAllMetadata(ctx, tdb.Pool)
	if err != nil {
		t.Fatalf("GetAllMetadata failed: %v", err)
	}
	if meta["rfm_source"] != "rfm.csv" || meta["rfm_rows"] != "2" {
		t.Errorf("Expected metadata of the previous import, got %v", meta)
	}
}

func TestReadMissingTable(t *testing.T) {
	tdb := testutil.NewTestDB(t, "missing")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ReadTable(ctx, tdb.Pool, db.RFMTable); !errors.Is(err, db.ErrTableNotFound) {
		t.Errorf("Expected ErrTableNotFound, got %v", err)
	}
}

func TestDropTables(t *testing.T) {
	tdb := testutil.NewTestDB(t, "drop")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	table := &dataset.Table{Name: "x", Header: []string{"CustomerID"}, Records: [][]string{{"1"}}}
	if err := db.ImportTables(ctx, tdb.Pool, table, table, db.ImportInfo{}); err != nil {
		t.Fatalf("ImportTables failed: %v", err)
	}
	if err := db.DropTables(ctx, tdb.Pool); err != nil {
		t.Fatalf("DropTables failed: %v", err)
	}
	for _, name := range []string{db.RFMTable, db.TransactionsTable} {
		exists, err := db.TableExists(ctx, tdb.Pool, name)
		if err != nil || exists {
			t.Errorf("Expected %s to be dropped (err %v)", name, err)
		}
	}
}
