package forecast

import (
	"strconv"
	"strings"
	"time"

	"demand-forecast-engine/config"
	"demand-forecast-engine/dataset"
	"demand-forecast-engine/model"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"gonum.org/v1/gonum/stat"
)

const (
	placeholderBase  = 100.0 // level of the lag/rolling placeholder draws
	placeholderSigma = 20.0
)

// Builder constructs fixed-order numeric feature vectors matching the
// model's expected schema. It never fails: internal errors produce a
// standard-normal vector of the correct length.
type Builder struct {
	cfg      config.FeatureConfig
	store    *dataset.Store
	holidays *cal.Calendar
	noise    func(mu, sigma float64) float64
}

// NewBuilder creates a feature builder. The dataset store is only consulted
// when historical lags are enabled.
func NewBuilder(cfg config.FeatureConfig, store *dataset.Store, noise func(mu, sigma float64) float64) *Builder {
	b := &Builder{
		cfg:   cfg,
		store: store,
		noise: noise,
	}
	if cfg.UseHolidayCalendar {
		c := &cal.Calendar{Name: "US sales"}
		c.AddHoliday(us.Holidays...)
		b.holidays = c
	}
	return b
}

// Build produces a feature vector for one target date. The vector length
// and slot order always match the schema. Slot names are matched by
// case-insensitive substring, first match wins:
//
//	lag / rolling  -> trailing history value (placeholder draw by default)
//	day_of_week    -> weekday of the target date, Monday=0
//	month          -> month 1-12
//	holiday        -> 0, or calendar lookup when enabled
//	anything else  -> 0
func (b *Builder) Build(target time.Time, product string, storeID int, schema model.Schema) (features []float64) {
	// The builder must never raise past its boundary; a panic while reading
	// history degrades to a standard-normal vector of the schema length.
	defer func() {
		if r := recover(); r != nil {
			features = b.RandomVector(schema)
		}
	}()

	features = make([]float64, len(schema))

	var history []float64
	if b.cfg.UseHistoricalLags && b.store != nil {
		history = b.store.Values(product)
	}

	for i, name := range schema {
		slot := strings.ToLower(name)
		switch {
		case strings.Contains(slot, "lag"):
			features[i] = b.lagValue(history, slotWindow(slot, 1))
		case strings.Contains(slot, "rolling"):
			features[i] = b.rollingMean(history, slotWindow(slot, 7))
		case strings.Contains(slot, "day_of_week"):
			// Monday=0 convention of the training pipeline
			features[i] = float64((int(target.Weekday()) + 6) % 7)
		case strings.Contains(slot, "month"):
			features[i] = float64(target.Month())
		case strings.Contains(slot, "holiday"):
			features[i] = b.holidayValue(target)
		}
	}
	return features
}

// RandomVector is the degraded feature vector: standard-normal draws of the
// schema length. Exposed so the engine can produce it when building fails.
func (b *Builder) RandomVector(schema model.Schema) []float64 {
	features := make([]float64, len(schema))
	for i := range features {
		features[i] = b.noise(0, 1)
	}
	return features
}

// lagValue returns the value `window` days back in the history, or a
// placeholder draw when real lags are disabled or out of range.
func (b *Builder) lagValue(history []float64, window int) float64 {
	if len(history) >= window && window > 0 {
		return history[len(history)-window]
	}
	return b.noise(placeholderBase, placeholderSigma)
}

// rollingMean returns the mean of the trailing `window` values, or a
// placeholder draw when unavailable.
func (b *Builder) rollingMean(history []float64, window int) float64 {
	if len(history) >= window && window > 0 {
		return stat.Mean(history[len(history)-window:], nil)
	}
	return b.noise(placeholderBase, placeholderSigma)
}

func (b *Builder) holidayValue(target time.Time) float64 {
	if b.holidays == nil {
		return 0
	}
	actual, observed, _ := b.holidays.IsHoliday(target)
	if actual || observed {
		return 1
	}
	return 0
}

// slotWindow parses the trailing window size from a slot name like "lag_7"
// or "rolling_mean_30".
func slotWindow(slot string, fallback int) int {
	idx := strings.LastIndex(slot, "_")
	if idx < 0 || idx == len(slot)-1 {
		return fallback
	}
	n, err := strconv.Atoi(slot[idx+1:])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
