package forecast

import (
	"math"
	"sync/atomic"
	"time"

	"demand-forecast-engine/config"
	"demand-forecast-engine/dataset"
	"demand-forecast-engine/model"

	"github.com/sirupsen/logrus"
)

// Engine orchestrates per-day iteration over a forecast horizon: it builds
// the feature vector for each future date, invokes the predictor, and
// applies the non-negativity and bound rules. When the model path fails for
// any day the entire horizon switches to the fallback forecast; Forecast
// never returns an error.
type Engine struct {
	log      *logrus.Entry
	cfg      config.ForecastConfig
	builder  *Builder
	store    *dataset.Store
	registry atomic.Pointer[model.Registry]

	now   func() time.Time
	noise func(mu, sigma float64) float64
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithNow overrides the wall clock
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithNoise overrides the Gaussian noise source for the fallback path
func WithNoise(noise func(mu, sigma float64) float64) EngineOption {
	return func(e *Engine) { e.noise = noise }
}

// NewEngine creates a forecast engine around a model registry and the
// dataset store. All collaborators are injected; the engine holds no global
// state and replaces the registry wholesale on Reload.
func NewEngine(cfg config.ForecastConfig, featCfg config.FeatureConfig, registry *model.Registry, store *dataset.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		log:   logrus.WithField("component", "forecast"),
		cfg:   cfg,
		store: store,
		now:   time.Now,
		noise: gaussianNoise,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.builder = NewBuilder(featCfg, store, e.noise)
	e.registry.Store(registry)
	return e
}

// Registry returns the current model registry snapshot
func (e *Engine) Registry() *model.Registry {
	return e.registry.Load()
}

// Reload atomically replaces the model registry. In-flight requests keep
// the snapshot they started with.
func (e *Engine) Reload(registry *model.Registry) {
	e.registry.Store(registry)
	e.log.Info("model registry reloaded")
}

// IsReady reports whether the default predictor is loaded. Callers at the
// HTTP boundary surface service-unavailable when false; the engine itself
// routes unready calls straight to the fallback.
func (e *Engine) IsReady() bool {
	p := e.Registry().Default()
	return p != nil && p.Ready()
}

// Forecast produces one record per day from tomorrow through now+days using
// the default model.
func (e *Engine) Forecast(days int, product string, storeID int) Result {
	return e.ForecastWithModel("", days, product, storeID)
}

// ForecastWithModel produces a forecast with a named model from the
// registry. Unknown or unready models, and any failure during feature
// construction or inference, degrade to the fallback for the whole horizon.
func (e *Engine) ForecastWithModel(name string, days int, product string, storeID int) Result {
	registry := e.Registry()

	predictor, err := registry.Get(name)
	if err != nil {
		return e.Fallback(days, "model not loaded: "+name)
	}
	if !predictor.Ready() {
		return e.Fallback(days, "model not loaded: "+predictor.Name())
	}

	schema := registry.Schema()
	records := make([]Record, 0, days)
	for i := 1; i <= days; i++ {
		date := e.now().AddDate(0, 0, i)

		features := e.builder.Build(date, product, storeID, schema)
		pred, err := predictor.Predict(features)
		if err != nil {
			// All-or-nothing: one failed day degrades the entire horizon.
			e.log.WithError(err).WithFields(logrus.Fields{
				"model":   predictor.Name(),
				"product": product,
			}).Warn("prediction failed, serving fallback forecast")
			return e.Fallback(days, err.Error())
		}
		if pred < 0 {
			pred = 0
		}

		records = append(records, e.record(date, pred, e.cfg.Confidence))
	}

	return Result{
		Model:   predictor.Name(),
		Mode:    ModeOK,
		Records: records,
	}
}

// ForecastBulk forecasts each product independently. A product whose model
// path fails degrades on its own; the batch never aborts.
func (e *Engine) ForecastBulk(days int, products []string, storeID int) map[string]Result {
	results := make(map[string]Result, len(products))
	for _, product := range products {
		results[product] = e.Forecast(days, product, storeID)
	}
	return results
}

// Fallback is the degraded forecast: a deterministic base plus linear trend
// plus Gaussian noise, clamped at zero, with the fallback confidence level
// so callers can detect the mode.
func (e *Engine) Fallback(days int, reason string) Result {
	records := make([]Record, 0, days)
	for i := 0; i < days; i++ {
		date := e.now().AddDate(0, 0, i+1)
		value := e.cfg.BaseValue + float64(i)*e.cfg.TrendPerDay + e.noise(0, e.cfg.NoiseSigma)
		if value < 0 {
			value = 0
		}
		records = append(records, e.record(date, value, e.cfg.FallbackConf))
	}
	return Result{
		Model:   "fallback",
		Mode:    ModeDegraded,
		Reason:  reason,
		Records: records,
	}
}

// record applies the bound rules and rounding to one prediction
func (e *Engine) record(date time.Time, pred, confidence float64) Record {
	lower := pred * (1 - e.cfg.BoundPct)
	if lower < 0 {
		lower = 0
	}
	return Record{
		Date:       date.Format("2006-01-02"),
		Prediction: round2(pred),
		LowerBound: round2(lower),
		UpperBound: round2(pred * (1 + e.cfg.BoundPct)),
		Confidence: confidence,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
