package dataset

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics summarizes the sales distribution of one product
type Statistics struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Statistics computes a statistical summary of a product's sales. An empty
// selection yields a zero summary, not an error.
func (s *Store) Statistics(product string) Statistics {
	values := s.Values(product)
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Statistics{
		Mean:   round2(stat.Mean(values, nil)),
		Median: round2(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		Std:    round2(stat.StdDev(values, nil)),
		Min:    round2(floats.Min(sorted)),
		Max:    round2(floats.Max(sorted)),
		Count:  len(values),
	}
}

// WindowStats holds aggregates over a trailing daily window
type WindowStats struct {
	Mean  float64
	Std   float64
	Count int
}

// Window computes mean and standard deviation over the aggregated daily
// series offset..offset+days days back from now. offset 0 means the most
// recent window.
func (s *Store) Window(days, offset int, product string) WindowStats {
	points, _ := s.Historical(days+offset, product)
	if offset > 0 && len(points) > offset {
		points = points[:len(points)-offset]
	}
	if len(points) > days {
		points = points[len(points)-days:]
	}
	if len(points) == 0 {
		return WindowStats{}
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	ws := WindowStats{
		Mean:  stat.Mean(values, nil),
		Count: len(values),
	}
	if len(values) > 1 {
		ws.Std = stat.StdDev(values, nil)
	}
	return ws
}
