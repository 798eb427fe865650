// Package dataset loads and serves the tabular sales history backing the
// forecast engine. Loading never fails hard: when no usable source exists
// the store degrades to a synthetic dataset.
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"demand-forecast-engine/config"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoDateColumn  = errors.New("no date column in dataset")
	ErrNoValueColumn = errors.New("no value column in dataset")
	ErrEmptyDataset  = errors.New("dataset has no parseable rows")
)

// DefaultProducts is the placeholder product set used when the dataset
// carries no category-like column.
var DefaultProducts = []string{"Rice", "Water", "Oil", "Noodles", "Sugar"}

// DefaultStore is the store id assumed when the dataset carries none.
const DefaultStore = 44

// AllProducts is the wildcard product filter.
const AllProducts = "all"

// Column name priority lists for schema discovery.
var (
	productColumns = []string{"family", "product", "category", "product_name"}
	storeColumns   = []string{"store_nbr", "store", "store_id"}
	valueColumn    = "unit_sales"
	dateColumn     = "date"
)

// Record is one daily sales observation
type Record struct {
	Date    time.Time
	Product string
	Store   int
	Sales   float64
}

// Point is an aggregated (date, value) pair returned by historical queries
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Store holds the sales dataset for the process lifetime. It is loaded once
// and read-only afterwards, so concurrent readers need no locking.
type Store struct {
	log      *logrus.Entry
	records  []Record
	products []string
	stores   []int
	source   string
	degraded bool

	now   func() time.Time
	noise func(mu, sigma float64) float64
}

// Option customizes a Store, used by tests to pin the clock and noise.
type Option func(*Store)

// WithNow overrides the wall clock
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNoise overrides the Gaussian noise source
func WithNoise(noise func(mu, sigma float64) float64) Option {
	return func(s *Store) { s.noise = noise }
}

// Load builds a Store from the first existing dataset candidate. On any
// failure it falls back to a synthetic dataset rather than returning an
// error; the degraded flag records that the data is not real.
func Load(cfg config.DataConfig, opts ...Option) *Store {
	s := &Store{
		log:   logrus.WithField("component", "dataset"),
		now:   time.Now,
		noise: gaussianNoise,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, candidate := range cfg.Candidates {
		path := filepath.Join(cfg.Dir, candidate)
		records, err := loadCSV(path)
		if err != nil {
			if !os.IsNotExist(errors.Unwrap(err)) && !os.IsNotExist(err) {
				s.log.WithError(err).WithField("path", path).Warn("skipping dataset candidate")
			}
			continue
		}
		s.records = records
		s.source = candidate
		s.extractMetadata()
		s.log.WithFields(logrus.Fields{
			"path": path,
			"rows": len(records),
		}).Info("sales data loaded")
		return s
	}

	s.log.Warn("no sales data found, generating synthetic dataset")
	s.records = s.syntheticRecords()
	s.source = "synthetic"
	s.degraded = true
	s.products = append([]string(nil), DefaultProducts...)
	s.stores = []int{DefaultStore}
	return s
}

// loadCSV parses a sales CSV with a header row. Rows with unparseable dates
// or values are skipped.
func loadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	dateIdx := indexOf(header, dateColumn)
	if dateIdx < 0 {
		return nil, ErrNoDateColumn
	}

	// Prefer unit_sales, else assume the last column holds the values.
	valueIdx := indexOf(header, valueColumn)
	if valueIdx < 0 {
		valueIdx = len(header) - 1
	}
	if valueIdx == dateIdx {
		return nil, ErrNoValueColumn
	}

	productIdx := firstIndexOf(header, productColumns)
	storeIdx := firstIndexOf(header, storeColumns)

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, not fatal
			continue
		}
		if dateIdx >= len(row) || valueIdx >= len(row) {
			continue
		}

		date, err := parseDate(row[dateIdx])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			continue
		}

		rec := Record{Date: date, Sales: value, Store: DefaultStore}
		if productIdx >= 0 && productIdx < len(row) {
			rec.Product = strings.TrimSpace(row[productIdx])
		}
		if storeIdx >= 0 && storeIdx < len(row) {
			if id, err := strconv.Atoi(strings.TrimSpace(row[storeIdx])); err == nil {
				rec.Store = id
			}
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unparseable date: " + s)
}

// extractMetadata derives the product and store sets from loaded records
func (s *Store) extractMetadata() {
	seenProducts := make(map[string]bool)
	seenStores := make(map[int]bool)
	for _, rec := range s.records {
		if rec.Product != "" && !seenProducts[rec.Product] {
			seenProducts[rec.Product] = true
			if len(s.products) < 10 {
				s.products = append(s.products, rec.Product)
			}
		}
		if !seenStores[rec.Store] {
			seenStores[rec.Store] = true
			s.stores = append(s.stores, rec.Store)
		}
	}

	if len(s.products) == 0 {
		s.products = append([]string(nil), DefaultProducts...)
	}
	if len(s.stores) == 0 {
		s.stores = []int{DefaultStore}
	}
	sort.Ints(s.stores)
}

// Products returns the known product set
func (s *Store) Products() []string {
	return s.products
}

// Stores returns the known store ids
func (s *Store) Stores() []int {
	return s.stores
}

// Source reports where the dataset came from ("synthetic" in degraded mode)
func (s *Store) Source() string {
	return s.source
}

// Degraded reports whether the store is serving synthetic data
func (s *Store) Degraded() bool {
	return s.degraded
}

// Len returns the number of loaded records
func (s *Store) Len() int {
	return len(s.records)
}

// Historical returns per-date aggregated sales within the trailing window of
// `days` days ending now, optionally filtered to one product, sorted by date
// ascending. The boolean reports whether the result is synthetic. It never
// fails: an empty or filtered-out dataset degrades to a synthetic series.
func (s *Store) Historical(days int, product string) ([]Point, bool) {
	if len(s.records) == 0 {
		return s.syntheticHistorical(days, product), true
	}

	cutoff := s.now().AddDate(0, 0, -days)
	end := s.now()

	totals := make(map[string]float64)
	for _, rec := range s.records {
		if rec.Date.Before(cutoff) || rec.Date.After(end) {
			continue
		}
		if product != "" && product != AllProducts && rec.Product != product {
			continue
		}
		totals[rec.Date.Format("2006-01-02")] += rec.Sales
	}

	points := make([]Point, 0, len(totals))
	for date, total := range totals {
		points = append(points, Point{Date: date, Value: round2(total)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	return points, s.degraded
}

// Values returns the raw sales values for a product (or all products),
// ordered by date ascending. Used for window statistics and naive models.
func (s *Store) Values(product string) []float64 {
	recs := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if product != "" && product != AllProducts && rec.Product != product {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })

	values := make([]float64, len(recs))
	for i, rec := range recs {
		values[i] = rec.Sales
	}
	return values
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func firstIndexOf(header []string, names []string) int {
	for _, name := range names {
		if idx := indexOf(header, name); idx >= 0 {
			return idx
		}
	}
	return -1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
