package model

import "gonum.org/v1/gonum/stat"

// MovingAverageModel predicts the mean of the trailing window of historical
// sales. Feature-independent: every horizon day gets the same level.
type MovingAverageModel struct {
	window  int
	level   float64
	trained bool
}

// NewMovingAverageModel trains a moving-average predictor on a sales series.
// The window defaults to 7 when non-positive.
func NewMovingAverageModel(values []float64, window int) (*MovingAverageModel, error) {
	if window <= 0 {
		window = 7
	}
	if len(values) == 0 {
		return nil, ErrNoHistory
	}
	if len(values) > window {
		values = values[len(values)-window:]
	}
	return &MovingAverageModel{
		window:  window,
		level:   stat.Mean(values, nil),
		trained: true,
	}, nil
}

func (m *MovingAverageModel) Name() string { return "moving_average" }

func (m *MovingAverageModel) Ready() bool { return m.trained }

func (m *MovingAverageModel) Predict(features []float64) (float64, error) {
	if !m.trained {
		return 0, ErrModelNotReady
	}
	return m.level, nil
}

// ExpSmoothingModel predicts with simple exponential smoothing: the final
// smoothed level of the training series is projected flat over the horizon.
type ExpSmoothingModel struct {
	alpha   float64
	level   float64
	trained bool
}

// NewExpSmoothingModel trains a simple exponential smoothing predictor.
// Alpha outside (0, 1] falls back to 0.3.
func NewExpSmoothingModel(values []float64, alpha float64) (*ExpSmoothingModel, error) {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	if len(values) == 0 {
		return nil, ErrNoHistory
	}

	level := values[0]
	for _, v := range values[1:] {
		level = alpha*v + (1-alpha)*level
	}
	return &ExpSmoothingModel{
		alpha:   alpha,
		level:   level,
		trained: true,
	}, nil
}

func (m *ExpSmoothingModel) Name() string { return "exp_smoothing" }

func (m *ExpSmoothingModel) Ready() bool { return m.trained }

func (m *ExpSmoothingModel) Predict(features []float64) (float64, error) {
	if !m.trained {
		return 0, ErrModelNotReady
	}
	return m.level, nil
}
