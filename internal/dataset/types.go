//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package dataset loads and cleans the RFM and transaction tables.
package dataset

import (
	"errors"
	"time"
)

// Column names of the transaction table.
const (
	ColInvoiceNo   = "InvoiceNo"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColInvoiceDate = "InvoiceDate"
	ColUnitPrice   = "UnitPrice"
	ColCustomerID  = "CustomerID"
	ColCountry     = "Country"

	// ColTotalPrice is derived during cleaning.
	ColTotalPrice = "Total_price"
)

// Column names of the RFM table.
const (
	ColRecency   = "Recency"
	ColFrequency = "Frequency"
	ColMonetary  = "Monetary"
	ColCluster   = "Cluster"
)

// TransactionColumns lists the columns the transaction table must carry.
var TransactionColumns = []string{
	ColInvoiceNo, ColStockCode, ColDescription, ColQuantity,
	ColInvoiceDate, ColUnitPrice, ColCustomerID, ColCountry,
}

// RFMColumns lists the columns the RFM table must carry.
var RFMColumns = []string{
	ColCustomerID, ColRecency, ColFrequency, ColMonetary, ColCluster,
}

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedValue is returned when a field cannot be parsed.
	ErrMalformedValue = errors.New("malformed value")

	// ErrDuplicateCustomer is returned when the RFM table repeats a customer id.
	ErrDuplicateCustomer = errors.New("duplicate customer id")
)

// Transaction is one cleaned invoice line.
type Transaction struct {
	InvoiceNo   string    `json:"invoice_no"`
	StockCode   string    `json:"stock_code"`
	Description string    `json:"description"`
	Quantity    int64     `json:"quantity"`
	InvoiceDate time.Time `json:"invoice_date"`
	UnitPrice   float64   `json:"unit_price"`
	CustomerID  int64     `json:"customer_id"`
	Country     string    `json:"country"`
	TotalPrice  float64   `json:"total_price"`
}

// CustomerRFM is one row of the offline clustering output.
type CustomerRFM struct {
	CustomerID   int64   `json:"customer_id"`
	Recency      float64 `json:"recency"`
	Frequency    float64 `json:"frequency"`
	Monetary     float64 `json:"monetary"`
	Cluster      int     `json:"cluster"`
	ClusterLabel string  `json:"cluster_label"`
}

// CleanStats reports what cleaning did to the transaction table.
type CleanStats struct {
	Rows               int `json:"rows"`
	DroppedMissing     int `json:"dropped_missing"`
	DroppedNonPositive int `json:"dropped_non_positive"`
	Kept               int `json:"kept"`
}
