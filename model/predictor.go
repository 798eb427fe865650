// Package model loads the serialized prediction artifacts: the regression
// model, its feature schema, the alternative time-series models trained from
// sales history, and the stored quality metrics.
package model

import (
	"errors"
)

var (
	ErrModelNotReady      = errors.New("model not loaded")
	ErrFeatureLenMismatch = errors.New("feature vector length does not match model coefficients")
	ErrNoHistory          = errors.New("no sales history to train on")
	ErrUnknownModel       = errors.New("unknown model")
)

// Predictor is an already-trained model mapping a fixed-length ordered
// feature vector to a scalar prediction. Implementations are read-only after
// construction and safe for concurrent use.
type Predictor interface {
	// Predict returns the point prediction for one feature vector.
	Predict(features []float64) (float64, error)
	// Name returns the registry identifier of the model.
	Name() string
	// Ready reports whether the model can serve predictions.
	Ready() bool
}
