package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Schema is the ordered list of named feature slots the predictor expects.
// Loaded once at startup and immutable for the process lifetime; the feature
// builder must always produce vectors of exactly this length and order.
type Schema []string

// DefaultSchema matches the feature layout the regression model was trained
// with: lags, rolling means, and calendar features.
func DefaultSchema() Schema {
	return Schema{
		"lag_1", "lag_7", "lag_30",
		"rolling_mean_7", "rolling_mean_30",
		"day_of_week", "month", "is_holiday",
	}
}

// LoadSchema reads the feature schema artifact. A missing or malformed
// artifact yields the default schema and a non-nil error for the caller to
// log; it is never fatal.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSchema(), fmt.Errorf("failed to read schema artifact %s: %w", path, err)
	}

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return DefaultSchema(), fmt.Errorf("failed to parse schema artifact %s: %w", path, err)
	}
	if len(schema) == 0 {
		return DefaultSchema(), fmt.Errorf("schema artifact %s is empty", path)
	}
	return schema, nil
}
