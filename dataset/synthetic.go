package dataset

import (
	"math/rand/v2"
	"time"
)

// syntheticStart is the first day of the generated dataset
var syntheticStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	syntheticHistBase  = 150.0 // base value for synthetic historical series
	syntheticHistDrift = 0.5   // upward drift per day
	syntheticHistSigma = 10.0  // Gaussian noise sigma
)

func gaussianNoise(mu, sigma float64) float64 {
	return mu + rand.NormFloat64()*sigma
}

// syntheticRecords generates one row per day from the fixed start date
// through now: random integer sales, a random default product, fixed store.
func (s *Store) syntheticRecords() []Record {
	var records []Record
	for d := syntheticStart; !d.After(s.now()); d = d.AddDate(0, 0, 1) {
		records = append(records, Record{
			Date:    d,
			Product: DefaultProducts[rand.IntN(len(DefaultProducts))],
			Store:   DefaultStore,
			Sales:   float64(50 + rand.IntN(250)),
		})
	}
	return records
}

// syntheticHistorical produces a deterministic-shape degraded series: base
// value plus linear drift over the window plus Gaussian noise, clipped at
// zero, one point per day ending yesterday.
func (s *Store) syntheticHistorical(days int, product string) []Point {
	points := make([]Point, 0, days)
	for i := days; i > 0; i-- {
		date := s.now().AddDate(0, 0, -i)
		value := syntheticHistBase + float64(days-i)*syntheticHistDrift + s.noise(0, syntheticHistSigma)
		if value < 0 {
			value = 0
		}
		points = append(points, Point{
			Date:  date.Format("2006-01-02"),
			Value: round2(value),
		})
	}
	return points
}
