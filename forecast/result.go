// Package forecast turns a trained predictor plus a requested horizon into a
// sequence of dated point forecasts with confidence bounds. Every operation
// degrades instead of failing: the result carries a mode tag so callers can
// tell a model-backed forecast from the fallback path.
package forecast

// Mode tags how a result was produced
type Mode string

const (
	// ModeOK marks a forecast produced by a loaded model
	ModeOK Mode = "ok"
	// ModeDegraded marks a fallback forecast produced without a model
	ModeDegraded Mode = "degraded"
)

// Record is a single dated forecast with confidence bounds. Bounds are
// derived from the point prediction, not from model variance.
type Record struct {
	Date       string  `json:"date"`
	Prediction float64 `json:"prediction"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Confidence float64 `json:"confidence"`
}

// Result is an ordered forecast sequence tagged with how it was produced.
// Reason is empty unless the result is degraded.
type Result struct {
	Model   string   `json:"model"`
	Mode    Mode     `json:"mode"`
	Reason  string   `json:"reason,omitempty"`
	Records []Record `json:"forecast"`
}

// Degraded reports whether the result came from the fallback path
func (r Result) Degraded() bool {
	return r.Mode == ModeDegraded
}
