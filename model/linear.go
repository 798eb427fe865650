package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// LinearModel is a regression predictor restored from a serialized
// coefficient artifact: an opaque fitted model consumed purely through
// Predict.
type LinearModel struct {
	name      string
	coef      []float64
	intercept float64
}

// linearArtifact is the on-disk layout of a serialized linear model
type linearArtifact struct {
	ModelType    string    `json:"model_type"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LoadLinearModel restores a linear regression predictor from a JSON
// artifact. The coefficient count must match the feature schema length.
func LoadLinearModel(name, path string, schemaLen int) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var artifact linearArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	if len(artifact.Coefficients) == 0 {
		return nil, fmt.Errorf("model artifact %s: %w", path, ErrModelNotReady)
	}
	if schemaLen > 0 && len(artifact.Coefficients) != schemaLen {
		return nil, fmt.Errorf("model artifact %s has %d coefficients for schema of %d: %w",
			path, len(artifact.Coefficients), schemaLen, ErrFeatureLenMismatch)
	}

	return &LinearModel{
		name:      name,
		coef:      artifact.Coefficients,
		intercept: artifact.Intercept,
	}, nil
}

// NewLinearModel builds a predictor from in-memory coefficients, used by
// tests and the reload path.
func NewLinearModel(name string, coef []float64, intercept float64) *LinearModel {
	return &LinearModel{name: name, coef: append([]float64(nil), coef...), intercept: intercept}
}

func (m *LinearModel) Name() string { return m.name }

func (m *LinearModel) Ready() bool { return len(m.coef) > 0 }

// Predict computes the dot product of the feature vector with the model
// coefficients plus the intercept.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(m.coef) == 0 {
		return 0, ErrModelNotReady
	}
	if len(features) != len(m.coef) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureLenMismatch, len(features), len(m.coef))
	}
	return m.intercept + floats.Dot(m.coef, features), nil
}
