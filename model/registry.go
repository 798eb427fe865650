package model

import (
	"path/filepath"
	"sort"

	"demand-forecast-engine/config"

	"github.com/sirupsen/logrus"
)

// Artifact file names under the model directory.
const (
	linearArtifactFile  = "linear_model.json"
	schemaArtifactFile  = "feature_columns.json"
	metricsArtifactFile = "model_metrics.json"
)

// Info describes one registered model for the model-listing endpoint
type Info struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SalesHistory is the slice of the dataset accessor the registry needs to
// train the naive models.
type SalesHistory interface {
	Values(product string) []float64
}

// Registry holds every loaded predictor together with the feature schema
// and metrics artifact. It is built once at startup (or on explicit reload)
// and read-only afterwards.
type Registry struct {
	log         *logrus.Entry
	models      map[string]Predictor
	defaultName string
	schema      Schema
	metrics     Metrics
}

// LoadRegistry loads every model artifact and trains the naive models from
// sales history. Missing artifacts are warnings, not errors: the registry is
// always returned, possibly with no ready default model.
func LoadRegistry(cfg config.ModelConfig, history SalesHistory) *Registry {
	log := logrus.WithField("component", "model")
	r := &Registry{
		log:         log,
		models:      make(map[string]Predictor),
		defaultName: cfg.DefaultModel,
	}

	schema, err := LoadSchema(filepath.Join(cfg.Dir, schemaArtifactFile))
	if err != nil {
		log.WithError(err).Warn("using default feature schema")
	}
	r.schema = schema

	metrics, err := LoadMetrics(filepath.Join(cfg.Dir, metricsArtifactFile))
	if err != nil {
		log.WithError(err).Warn("using default model metrics")
	}
	r.metrics = metrics

	// The regression model serves the default slot.
	linear, err := LoadLinearModel(cfg.DefaultModel, filepath.Join(cfg.Dir, linearArtifactFile), len(schema))
	if err != nil {
		log.WithError(err).Warn("regression model not loaded")
	} else {
		r.models[linear.Name()] = linear
	}

	// Naive models are trained from whatever history exists.
	values := history.Values("")
	if ma, err := NewMovingAverageModel(values, 7); err != nil {
		log.WithError(err).Warn("moving average model not trained")
	} else {
		r.models[ma.Name()] = ma
	}
	if es, err := NewExpSmoothingModel(values, 0.3); err != nil {
		log.WithError(err).Warn("exponential smoothing model not trained")
	} else {
		r.models[es.Name()] = es
	}

	log.WithFields(logrus.Fields{
		"models":  len(r.models),
		"schema":  len(schema),
		"default": cfg.DefaultModel,
	}).Info("model registry loaded")
	return r
}

// NewRegistry builds a registry from explicit parts, used by tests
func NewRegistry(defaultName string, schema Schema, metrics Metrics, models ...Predictor) *Registry {
	r := &Registry{
		log:         logrus.WithField("component", "model"),
		models:      make(map[string]Predictor),
		defaultName: defaultName,
		schema:      schema,
		metrics:     metrics,
	}
	for _, m := range models {
		r.models[m.Name()] = m
	}
	return r
}

// Default returns the default predictor, or nil when it is not loaded
func (r *Registry) Default() Predictor {
	return r.models[r.defaultName]
}

// Get returns a predictor by name
func (r *Registry) Get(name string) (Predictor, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.models[name]
	if !ok {
		return nil, ErrUnknownModel
	}
	return p, nil
}

// Schema returns the feature schema
func (r *Registry) Schema() Schema {
	return r.schema
}

// Metrics returns the stored model metrics
func (r *Registry) Metrics() Metrics {
	return r.metrics
}

// List describes every known model slot, including unloaded ones, sorted by
// id for stable output.
func (r *Registry) List() []Info {
	known := map[string]bool{r.defaultName: true}
	for name := range r.models {
		known[name] = true
	}

	infos := make([]Info, 0, len(known))
	for name := range known {
		status := "not_loaded"
		if p, ok := r.models[name]; ok && p.Ready() {
			status = "ready"
		}
		infos = append(infos, Info{ID: name, Name: displayName(name), Status: status})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// displayName converts a model id like "exp_smoothing" to "Exp Smoothing"
func displayName(id string) string {
	out := make([]rune, 0, len(id))
	upper := true
	for _, r := range id {
		if r == '_' {
			out = append(out, ' ')
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		upper = false
		out = append(out, r)
	}
	return string(out)
}
