// Package api is the HTTP adapter over the forecast core: it parses and
// validates requests, checks engine readiness, and translates core results
// to JSON. All forecasting logic lives in the forecast package.
package api

import (
	"net/http"
	"os"
	"strconv"

	"demand-forecast-engine/cache"
	"demand-forecast-engine/config"
	"demand-forecast-engine/dataset"
	"demand-forecast-engine/forecast"
	"demand-forecast-engine/model"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultForecastDays   = 7
	maxForecastDays       = 365
	defaultHistoricalDays = 30
	maxHistoricalDays     = 3650
)

// Server is the HTTP API server
type Server struct {
	router      *mux.Router
	log         *logrus.Entry
	cfg         *config.Config
	engine      *forecast.Engine
	reporter    *forecast.Reporter
	store       *dataset.Store
	cache       cache.ForecastCache
	limiter     *rate.Limiter
	adminSecret string
}

// NewServer creates the API server around the injected core components
func NewServer(cfg *config.Config, engine *forecast.Engine, reporter *forecast.Reporter, store *dataset.Store, fc cache.ForecastCache) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		log:         logrus.WithField("component", "api"),
		cfg:         cfg,
		engine:      engine,
		reporter:    reporter,
		store:       store,
		cache:       fc,
		limiter:     newLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		adminSecret: os.Getenv("FORECAST_ADMIN_SECRET"),
	}
	if s.adminSecret == "" {
		s.log.Warn("FORECAST_ADMIN_SECRET unset, admin endpoints are unauthenticated")
	}

	s.setupRoutes()
	return s
}

// ServeHTTP implements the http.Handler interface with CORS handling
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware, s.metricsMiddleware, s.rateLimitMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.healthCheck).Methods("GET")
	api.HandleFunc("/forecast", s.getForecast).Methods("GET")
	api.HandleFunc("/forecast/bulk", s.postForecastBulk).Methods("POST")
	api.HandleFunc("/historical", s.getHistorical).Methods("GET")
	api.HandleFunc("/products", s.getProducts).Methods("GET")
	api.HandleFunc("/categories", s.getCategories).Methods("GET")
	api.HandleFunc("/statistics", s.getStatistics).Methods("GET")
	api.HandleFunc("/kpis", s.getKPIs).Methods("GET")
	api.HandleFunc("/models", s.getModels).Methods("GET")
	api.HandleFunc("/model/metrics", s.getModelMetrics).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.adminAuthMiddleware)
	admin.HandleFunc("/reload", s.postReload).Methods("POST")

	// Prometheus exposition
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/", s.rootHandler).Methods("GET")
}

// Router exposes the underlying router for tests
func (s *Server) Router() http.Handler {
	return s
}

func (s *Server) respond(w http.ResponseWriter, status int, payload interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.WithError(err).Warn("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respond(w, status, map[string]string{"error": message})
}

// parseDays parses a positive day-count query parameter with bounds
func parseDays(r *http.Request, name string, def, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > max {
		return 0, false
	}
	return days, true
}

// healthCheck reports service liveness
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API is running",
	})
}

// rootHandler describes the service
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"service": "demand-forecast-engine",
		"status":  "running",
		"endpoints": []string{
			"/api/health", "/api/forecast", "/api/forecast/bulk",
			"/api/historical", "/api/products", "/api/categories",
			"/api/statistics", "/api/kpis", "/api/models",
			"/api/model/metrics", "/metrics",
		},
	})
}

// forecastResponse embeds the historical overlay next to the forecast
type forecastResponse struct {
	forecast.Result
	Historical []dataset.Point `json:"historical,omitempty"`
}

// getForecast serves GET /api/forecast?days=&product=&store=&model=
func (s *Server) getForecast(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(r, "days", defaultForecastDays, maxForecastDays)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	product := r.URL.Query().Get("product")
	if product == "" {
		product = dataset.AllProducts
	}

	storeID := dataset.DefaultStore
	if raw := r.URL.Query().Get("store"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "store must be an integer")
			return
		}
		storeID = id
	}

	modelName := r.URL.Query().Get("model")

	// Readiness gate: the adapter surfaces unavailability instead of letting
	// the default path silently predict while unready.
	if modelName == "" && !s.engine.IsReady() {
		s.respondError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	key := cache.Key(modelName, product, storeID, days)
	result, hit := s.cache.Get(r.Context(), key)
	if !hit {
		result = s.engine.ForecastWithModel(modelName, days, product, storeID)
		s.cache.Set(r.Context(), key, result)
	}
	forecastsTotal.WithLabelValues(string(result.Mode)).Inc()

	resp := forecastResponse{Result: result}
	if s.cfg.Forecast.HistoricalDays > 0 {
		resp.Historical, _ = s.store.Historical(s.cfg.Forecast.HistoricalDays, product)
	}
	s.respond(w, http.StatusOK, resp)
}

// bulkRequest is the POST /api/forecast/bulk payload
type bulkRequest struct {
	Products []string `json:"products"`
	Days     int      `json:"days"`
	Store    int      `json:"store"`
}

// postForecastBulk forecasts several products in one call
func (s *Server) postForecastBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(req.Products) == 0 {
		s.respondError(w, http.StatusBadRequest, "products is required")
		return
	}
	if req.Days == 0 {
		req.Days = defaultForecastDays
	}
	if req.Days < 1 || req.Days > maxForecastDays {
		s.respondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}
	if req.Store == 0 {
		req.Store = dataset.DefaultStore
	}

	if !s.engine.IsReady() {
		s.respondError(w, http.StatusServiceUnavailable, "model not loaded")
		return
	}

	results := s.engine.ForecastBulk(req.Days, req.Products, req.Store)
	for _, result := range results {
		forecastsTotal.WithLabelValues(string(result.Mode)).Inc()
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"forecasts": results})
}

// getHistorical serves GET /api/historical?days=&product=
func (s *Server) getHistorical(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(r, "days", defaultHistoricalDays, maxHistoricalDays)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	product := r.URL.Query().Get("product")
	if product == "" {
		product = dataset.AllProducts
	}

	points, synthetic := s.store.Historical(days, product)
	mode := forecast.ModeOK
	if synthetic {
		mode = forecast.ModeDegraded
	}

	s.respond(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"mode":    mode,
		"data":    points,
		"count":   len(points),
	})
}

// getProducts lists the known products
func (s *Server) getProducts(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"products": s.store.Products(),
		"stores":   s.store.Stores(),
		"source":   s.store.Source(),
	})
}

// category mirrors the dashboard category selector
type category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// getCategories returns the fixed dashboard categories
func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	categories := []category{
		{ID: "rice", Name: "Rice", Icon: "🌾"},
		{ID: "water", Name: "Bottled Water", Icon: "💧"},
		{ID: "oil", Name: "Cooking Oil", Icon: "🫒"},
		{ID: "noodles", Name: "Instant Noodles", Icon: "🍜"},
		{ID: "sugar", Name: "Sugar", Icon: "🧂"},
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// getStatistics serves GET /api/statistics?product=
func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if product == "" {
		product = dataset.AllProducts
	}
	s.respond(w, http.StatusOK, map[string]interface{}{
		"product":    product,
		"statistics": s.store.Statistics(product),
	})
}

// getKPIs serves the dashboard KPI block
func (s *Server) getKPIs(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if product == "" {
		product = dataset.AllProducts
	}
	s.respond(w, http.StatusOK, s.engine.KPIs(product))
}

// getModels lists every registered model and its status
func (s *Server) getModels(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]interface{}{
		"models": s.engine.Registry().List(),
	})
}

// getModelMetrics returns the model quality snapshot
func (s *Server) getModelMetrics(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.reporter.Metrics())
}

// postReload reloads model artifacts and swaps the registry wholesale
func (s *Server) postReload(w http.ResponseWriter, r *http.Request) {
	registry := model.LoadRegistry(s.cfg.Model, s.store)
	s.engine.Reload(registry)
	s.respond(w, http.StatusOK, map[string]interface{}{
		"status": "reloaded",
		"models": registry.List(),
	})
}
