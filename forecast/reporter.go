package forecast

import "time"

// Snapshot is the model-quality report returned by the metrics endpoint.
// Everything except Status and LastUpdated is a passthrough of the stored
// training artifact.
type Snapshot struct {
	ModelType   string  `json:"model_type"`
	Accuracy    float64 `json:"accuracy"`
	MAPE        float64 `json:"mape"`
	RMSE        float64 `json:"rmse"`
	Status      string  `json:"status"`
	LastUpdated string  `json:"last_updated"`
}

// Reporter exposes the stored model metrics plus a live readiness check
type Reporter struct {
	engine *Engine
	now    func() time.Time
}

// NewReporter creates a metrics reporter bound to an engine
func NewReporter(engine *Engine) *Reporter {
	return &Reporter{
		engine: engine,
		now:    engine.now,
	}
}

// Metrics returns the stored metrics with the readiness status recomputed
// on every call and the timestamp reflecting query time.
func (r *Reporter) Metrics() Snapshot {
	m := r.engine.Registry().Metrics()

	status := "not_loaded"
	if r.engine.IsReady() {
		status = "ready"
	}

	return Snapshot{
		ModelType:   m.ModelType,
		Accuracy:    m.Accuracy,
		MAPE:        m.MAPE,
		RMSE:        m.RMSE,
		Status:      status,
		LastUpdated: r.now().Format(time.RFC3339),
	}
}
