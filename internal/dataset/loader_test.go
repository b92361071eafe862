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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

type countingSource struct {
	id    string
	calls atomic.Int32
	rfm   string
	tx    string
}

func (s *countingSource) Identity() string { return s.id }

func (s *countingSource) Tables(_ context.Context) (*Table, *Table, error) {
	s.calls.Add(1)
	rfm, err := DecodeCSV(bytes.NewBufferString(s.rfm), "rfm_clusters")
	if err != nil {
		return nil, nil, err
	}
	tx, err := DecodeCSV(bytes.NewBufferString(s.tx), "online_retail")
	if err != nil {
		return nil, nil, err
	}
	return rfm, tx, nil
}

// cancellableSource honours its context before reading.
type cancellableSource struct {
	countingSource
}

func (s *cancellableSource) Tables(ctx context.Context) (*Table, *Table, error) {
	if err := ctx.Err(); err != nil {
		s.calls.Add(1)
		return nil, nil, err
	}
	return s.countingSource.Tables(ctx)
}

func TestLoaderRetriesAfterCancelledLoad(t *testing.T) {
	src := &cancellableSource{countingSource{id: "cancellable", rfm: rfmCSV, tx: retailCSV}}
	loader := NewLoader()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Load(ctx, src); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	dc, err := loader.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Expected a live context to load, got %v", err)
	}
	if len(dc.RFM) == 0 {
		t.Error("Expected RFM rows after retry")
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("Expected source read twice, got %d", got)
	}

	if again, err := loader.Load(context.Background(), src); err != nil || again != dc {
		t.Errorf("Expected the successful load to be memoized, got %v", err)
	}
}

func TestLoaderMemoizesByIdentity(t *testing.T) {
	src := &countingSource{id: "fixture", rfm: rfmCSV, tx: retailCSV}
	loader := NewLoader()

	var wg sync.WaitGroup
	results := make([]*Context, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dc, err := loader.Load(context.Background(), src)
			if err != nil {
				t.Errorf("Load failed: %v", err)
				return
			}
			results[i] = dc
		}(i)
	}
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("Expected source read once, got %d", got)
	}
	for i, dc := range results {
		if dc != results[0] {
			t.Errorf("Result %d is a different Context", i)
		}
	}

	other := &countingSource{id: "other", rfm: rfmCSV, tx: retailCSV}
	dc, err := loader.Load(context.Background(), other)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if dc == results[0] {
		t.Error("Different identities should produce different Contexts")
	}
}

func TestLoaderMemoizesErrors(t *testing.T) {
	src := &countingSource{id: "broken", rfm: "CustomerID\n1\n", tx: retailCSV}
	loader := NewLoader()

	if _, err := loader.Load(context.Background(), src); err == nil {
		t.Fatal("Expected error for RFM table without required columns")
	}
	if _, err := loader.Load(context.Background(), src); err == nil {
		t.Fatal("Expected memoized error on second load")
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("Expected source read once, got %d", got)
	}
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	rfmPath := filepath.Join(dir, "rfm_clusters.csv")
	txPath := filepath.Join(dir, "Online_retail.csv")
	if err := os.WriteFile(rfmPath, []byte(rfmCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(txPath, []byte(retailCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	dc, err := NewLoader().Load(context.Background(), CSVSource{RFMPath: rfmPath, TransactionsPath: txPath})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(dc.RFM) != 4 {
		t.Errorf("Expected 4 RFM rows, got %d", len(dc.RFM))
	}
	if len(dc.Transactions) != 3 {
		t.Errorf("Expected 3 transactions, got %d", len(dc.Transactions))
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := CSVSource{RFMPath: filepath.Join(t.TempDir(), "nope.csv"), TransactionsPath: "also-nope.csv"}
	if _, err := NewLoader().Load(context.Background(), src); err == nil {
		t.Error("Expected error for missing input file, got nil")
	}
}

func TestContextLookups(t *testing.T) {
	src := &countingSource{id: "fixture", rfm: rfmCSV, tx: retailCSV}
	dc, err := NewLoader().Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, ok := dc.Customer(12347); !ok {
		t.Error("Expected customer 12347 in RFM table")
	}
	if _, ok := dc.Customer(1); ok {
		t.Error("Did not expect customer 1 in RFM table")
	}

	if got := len(dc.TransactionsFor(17850)); got != 2 {
		t.Errorf("Expected 2 transactions for 17850, got %d", got)
	}
	if got := dc.TransactionsFor(99999); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil history, got %v", got)
	}

	ids := dc.CustomerIDs()
	if len(ids) != 4 || ids[0] != 12346 {
		t.Errorf("Expected RFM ids in table order, got %v", ids)
	}

	tbl := dc.LabelledRFMTable()
	if tbl.Header[len(tbl.Header)-1] != "Cluster_Label" {
		t.Errorf("Expected Cluster_Label as last column, got %v", tbl.Header)
	}
	if tbl.Records[0][5] != "Business Buyers" {
		t.Errorf("Expected first label 'Business Buyers', got '%s'", tbl.Records[0][5])
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	back, err := DecodeCSV(&buf, "roundtrip")
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	if len(back.Records) != len(dc.RFM) {
		t.Errorf("Expected %d exported rows, got %d", len(dc.RFM), len(back.Records))
	}
}
