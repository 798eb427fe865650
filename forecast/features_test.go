package forecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"demand-forecast-engine/config"
	"demand-forecast-engine/dataset"
	"demand-forecast-engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroNoise(mu, sigma float64) float64 { return mu }

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBuildLengthMatchesSchema(t *testing.T) {
	b := NewBuilder(config.FeatureConfig{}, nil, zeroNoise)

	testData := map[string]model.Schema{
		"full schema":     model.DefaultSchema(),
		"reordered":       {"month", "is_holiday", "lag_7", "day_of_week"},
		"single slot":     {"lag_1"},
		"unknown slots":   {"promo", "temperature"},
		"empty schema":    {},
		"mixed case name": {"Day_Of_Week", "LAG_1"},
	}

	target := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	for name, schema := range testData {
		t.Run(name, func(t *testing.T) {
			vec := b.Build(target, "Rice", dataset.DefaultStore, schema)
			assert.Len(t, vec, len(schema))
		})
	}
}

func TestBuildSlotValues(t *testing.T) {
	b := NewBuilder(config.FeatureConfig{}, nil, zeroNoise)
	// 2024-03-11 is a Monday.
	target := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	schema := model.Schema{"lag_1", "rolling_mean_7", "day_of_week", "month", "is_holiday", "promo"}
	vec := b.Build(target, "Rice", dataset.DefaultStore, schema)

	// With noise stubbed to its mean, placeholder slots sit at the base level.
	assert.Equal(t, placeholderBase, vec[0])
	assert.Equal(t, placeholderBase, vec[1])
	assert.Equal(t, 0.0, vec[2]) // Monday=0
	assert.Equal(t, 3.0, vec[3])
	assert.Equal(t, 0.0, vec[4]) // no holiday calendar wired in
	assert.Equal(t, 0.0, vec[5]) // unmatched slot stays zero
}

func TestBuildWeekdayConvention(t *testing.T) {
	b := NewBuilder(config.FeatureConfig{}, nil, zeroNoise)
	schema := model.Schema{"day_of_week"}

	// Sunday maps to 6 under the Monday=0 convention.
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 6.0, b.Build(sunday, "", dataset.DefaultStore, schema)[0])
}

func TestBuildHistoricalLags(t *testing.T) {
	dir := t.TempDir()
	csv := "date,family,unit_sales\n"
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	values := []string{"10", "20", "30", "40", "50", "60", "70"}
	for i, v := range values {
		csv += day.AddDate(0, 0, i).Format("2006-01-02") + ",Rice," + v + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.csv"), []byte(csv), 0644))

	store := dataset.Load(config.DataConfig{Dir: dir, Candidates: []string{"train.csv"}})
	b := NewBuilder(config.FeatureConfig{UseHistoricalLags: true}, store, zeroNoise)

	target := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	schema := model.Schema{"lag_1", "lag_7", "rolling_mean_7", "lag_30"}
	vec := b.Build(target, "Rice", dataset.DefaultStore, schema)

	assert.Equal(t, 70.0, vec[0]) // most recent value
	assert.Equal(t, 10.0, vec[1]) // 7 values back
	assert.Equal(t, 40.0, vec[2]) // mean of the last 7
	// Insufficient history for lag_30 falls back to the placeholder draw.
	assert.Equal(t, placeholderBase, vec[3])
}

func TestBuildHolidayCalendar(t *testing.T) {
	b := NewBuilder(config.FeatureConfig{UseHolidayCalendar: true}, nil, zeroNoise)
	schema := model.Schema{"is_holiday"}

	christmas := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, b.Build(christmas, "", dataset.DefaultStore, schema)[0])

	ordinary := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, b.Build(ordinary, "", dataset.DefaultStore, schema)[0])
}

func TestRandomVectorLength(t *testing.T) {
	b := NewBuilder(config.FeatureConfig{}, nil, gaussianNoise)
	assert.Len(t, b.RandomVector(model.DefaultSchema()), 8)
	assert.Empty(t, b.RandomVector(model.Schema{}))
}
