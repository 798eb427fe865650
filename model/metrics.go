package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Metrics are the stored quality figures of the trained model. They are a
// passthrough of the training artifact, never recomputed from live data.
type Metrics struct {
	ModelType string  `json:"model_type"`
	Accuracy  float64 `json:"accuracy"`
	MAPE      float64 `json:"mape"`
	RMSE      float64 `json:"rmse"`
}

// DefaultMetrics returns the hardcoded fallback metrics used when no
// metrics artifact exists.
func DefaultMetrics() Metrics {
	return Metrics{
		ModelType: "Random Forest",
		Accuracy:  0.92,
		MAPE:      8.5,
		RMSE:      125.3,
	}
}

// LoadMetrics reads the metrics artifact, falling back to defaults on any
// failure. The error is informational only.
func LoadMetrics(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultMetrics(), fmt.Errorf("failed to read metrics artifact %s: %w", path, err)
	}

	metrics := DefaultMetrics()
	if err := json.Unmarshal(data, &metrics); err != nil {
		return DefaultMetrics(), fmt.Errorf("failed to parse metrics artifact %s: %w", path, err)
	}
	return metrics, nil
}
