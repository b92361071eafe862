//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/logging"
)

// InvoiceDateLayout is the timestamp format written to the transaction CSV.
const InvoiceDateLayout = "2006-01-02 15:04:05"

const (
	firstInvoiceNo  = 536365
	firstCustomerID = 12346
	catalogueSize   = 250
)

// Options controls dataset generation.
type Options struct {
	// Customers is the number of identified customers.
	Customers int

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64

	Start, End time.Time

	// MissingCustomerRate is the share of invoices written without a customer id.
	MissingCustomerRate float64

	// CancellationRate is the share of invoices that are cancellations
	// ("C" prefix, negative quantities).
	CancellationRate float64

	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
}

// DefaultOptions returns options shaped like the UCI Online Retail dataset.
func DefaultOptions() Options {
	return Options{
		Customers:           500,
		Start:               time.Date(2010, 12, 1, 8, 0, 0, 0, time.UTC),
		End:                 time.Date(2011, 12, 9, 18, 0, 0, 0, time.UTC),
		MissingCustomerRate: 0.2,
		CancellationRate:    0.02,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Customers < 1 {
		return fmt.Errorf("customers must be at least 1")
	}
	if !o.End.After(o.Start) {
		return fmt.Errorf("end must be after start")
	}
	if o.MissingCustomerRate < 0 || o.MissingCustomerRate >= 1 {
		return fmt.Errorf("missing customer rate must be in [0, 1)")
	}
	if o.CancellationRate < 0 || o.CancellationRate >= 1 {
		return fmt.Errorf("cancellation rate must be in [0, 1)")
	}
	return nil
}

// profile drives the purchasing behaviour of one segment.
type profile struct {
	cluster     int
	weight      int
	invoices    [2]int
	lines       [2]int
	quantity    [2]int
	priceFactor float64
}

var profiles = []profile{
	{cluster: 0, weight: 45, invoices: [2]int{1, 4}, lines: [2]int{1, 8}, quantity: [2]int{1, 12}, priceFactor: 0.7},
	{cluster: 1, weight: 10, invoices: [2]int{8, 30}, lines: [2]int{5, 25}, quantity: [2]int{2, 24}, priceFactor: 2.5},
	{cluster: 2, weight: 35, invoices: [2]int{2, 10}, lines: [2]int{2, 15}, quantity: [2]int{1, 24}, priceFactor: 1},
	{cluster: 3, weight: 10, invoices: [2]int{3, 12}, lines: [2]int{3, 20}, quantity: [2]int{48, 600}, priceFactor: 0.9},
}

var countries = []string{"Germany", "France", "EIRE", "Spain", "Netherlands", "Belgium", "Switzerland", "Portugal", "Australia", "Norway"}

// Percent of customers in the home country, and in a country picked by the
// faker rather than from the list above.
const (
	homeCountry    = "United Kingdom"
	homeShare      = 85
	fakerCountries = 2
)

type product struct {
	code, description string
	price             float64
}

type customer struct {
	id      int64
	country string
	profile profile
}

type invoice struct {
	customer  *customer
	anonymous bool
	cancelled bool
	at        time.Time
}

// Dataset is a generated pair of raw tables.
type Dataset struct {
	Transactions *dataset.Table
	RFM          *dataset.Table
}

// Generate builds a transaction table and an RFM table computed from it.
// Cluster ids come from each customer's generated behaviour profile.
func Generate(ctx context.Context, opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f := NewFaker()
	if opts.Seed != 0 {
		f = NewFakerWithSeed(opts.Seed)
	}

	catalogue := make([]product, catalogueSize)
	for i := range catalogue {
		catalogue[i] = product{
			code:        f.StockCode(),
			description: f.ProductDescription(),
			price:       f.Price(0.2, 15),
		}
	}

	customers := make([]*customer, opts.Customers)
	weights := make([]int, len(profiles))
	for i, p := range profiles {
		weights[i] = p.weight
	}
	id := int64(firstCustomerID)
	for i := range customers {
		customers[i] = &customer{
			id:      id,
			country: pickCountry(f),
			profile: ChooseWeighted(f, profiles, weights),
		}
		id += int64(f.Int(1, 3))
	}

	var invoices []invoice
	for _, c := range customers {
		n := f.Int(c.profile.invoices[0], c.profile.invoices[1])
		for range n {
			invoices = append(invoices, invoice{
				customer:  c,
				anonymous: f.Chance(opts.MissingCustomerRate),
				cancelled: f.Chance(opts.CancellationRate),
				at:        f.DateRange(opts.Start, opts.End).Truncate(time.Minute),
			})
		}
	}
	sort.SliceStable(invoices, func(i, j int) bool { return invoices[i].at.Before(invoices[j].at) })

	bar := newBar(opts.Progress, len(invoices))
	defer func() { _ = bar.Finish() }()

	tx := &dataset.Table{
		Name:   "online_retail",
		Header: append([]string{""}, dataset.TransactionColumns...),
	}
	rfm := newRFMAccumulator()
	for i, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		invoiceNo := strconv.Itoa(firstInvoiceNo + i)
		if inv.cancelled {
			invoiceNo = "C" + invoiceNo
		}
		customerID := strconv.FormatInt(inv.customer.id, 10) + ".0"
		if inv.anonymous {
			customerID = ""
		}

		p := inv.customer.profile
		lines := f.Int(p.lines[0], p.lines[1])
		for range lines {
			item := Choose(f, catalogue)
			qty := int64(f.Int(p.quantity[0], p.quantity[1]))
			if inv.cancelled {
				qty = -qty
			}
			price := max(RoundPence(item.price*p.priceFactor), 0.01)

			tx.Records = append(tx.Records, []string{
				strconv.Itoa(len(tx.Records)),
				invoiceNo,
				item.code,
				item.description,
				strconv.FormatInt(qty, 10),
				inv.at.Format(InvoiceDateLayout),
				strconv.FormatFloat(price, 'f', 2, 64),
				customerID,
				inv.customer.country,
			})

			if !inv.anonymous && qty > 0 {
				rfm.add(inv.customer, invoiceNo, inv.at, float64(qty)*price)
			}
		}
		_ = bar.Add(1)
	}

	ds := &Dataset{Transactions: tx, RFM: rfm.table()}
	logging.Info().
		Int("customers", opts.Customers).
		Int("invoices", len(invoices)).
		Int("transactions", len(tx.Records)).
		Int("rfm_rows", len(ds.RFM.Records)).
		Msg("Generated dataset")
	return ds, nil
}

func pickCountry(f *Faker) string {
	switch r := f.Int(1, 100); {
	case r <= homeShare:
		return homeCountry
	case r <= homeShare+fakerCountries:
		return f.Country()
	default:
		return Choose(f, countries)
	}
}

func newBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Generating invoices"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)
}

type rfmRow struct {
	customer *customer
	invoices map[string]struct{}
	last     time.Time
	monetary float64
}

// rfmAccumulator derives recency, frequency and monetary value from the kept
// transaction lines of each customer.
type rfmAccumulator struct {
	rows   map[int64]*rfmRow
	latest time.Time
}

func newRFMAccumulator() *rfmAccumulator {
	return &rfmAccumulator{rows: make(map[int64]*rfmRow)}
}

func (a *rfmAccumulator) add(c *customer, invoiceNo string, at time.Time, total float64) {
	r, ok := a.rows[c.id]
	if !ok {
		r = &rfmRow{customer: c, invoices: make(map[string]struct{})}
		a.rows[c.id] = r
	}
	r.invoices[invoiceNo] = struct{}{}
	r.monetary += total
	if at.After(r.last) {
		r.last = at
	}
	if at.After(a.latest) {
		a.latest = at
	}
}

// table renders the RFM table ordered by customer id. Recency is measured in
// days from the day after the latest purchase.
func (a *rfmAccumulator) table() *dataset.Table {
	t := &dataset.Table{Name: "rfm_clusters", Header: append([]string{}, dataset.RFMColumns...)}
	ref := a.latest.Truncate(24 * time.Hour).AddDate(0, 0, 1)

	ids := make([]int64, 0, len(a.rows))
	for id := range a.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		r := a.rows[id]
		recency := int(ref.Sub(r.last.Truncate(24*time.Hour)).Hours() / 24)
		t.Records = append(t.Records, []string{
			strconv.FormatInt(id, 10),
			strconv.Itoa(recency),
			strconv.Itoa(len(r.invoices)),
			strconv.FormatFloat(RoundPence(r.monetary), 'f', 2, 64),
			strconv.Itoa(r.customer.profile.cluster),
		})
	}
	return t
}

// WriteFiles writes the dataset as two CSV files.
func (d *Dataset) WriteFiles(rfmPath, transactionsPath string) error {
	if err := writeFile(transactionsPath, d.Transactions); err != nil {
		return err
	}
	return writeFile(rfmPath, d.RFM)
}

func writeFile(path string, t *dataset.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := dataset.WriteCSV(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logging.Info().Str("path", path).Int("rows", len(t.Records)).Msg("Wrote table")
	return nil
}
