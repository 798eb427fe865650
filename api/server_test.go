package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"demand-forecast-engine/cache"
	"demand-forecast-engine/config"
	"demand-forecast-engine/dataset"
	"demand-forecast-engine/forecast"
	"demand-forecast-engine/model"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func zeroNoise(mu, sigma float64) float64 { return mu }

// newTestServer wires a server around a synthetic dataset. With ready=false
// the registry holds no models so the default forecast path is gated.
func newTestServer(t *testing.T, ready bool) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()

	store := dataset.Load(cfg.Data, dataset.WithNow(fixedNow(testNow)))

	var models []model.Predictor
	if ready {
		coef := make([]float64, len(model.DefaultSchema()))
		for i := range coef {
			coef[i] = 0.1
		}
		models = append(models, model.NewLinearModel("random_forest", coef, 5))
	}
	registry := model.NewRegistry("random_forest", model.DefaultSchema(), model.DefaultMetrics(), models...)

	engine := forecast.NewEngine(cfg.Forecast, cfg.Features, registry, store,
		forecast.WithNow(fixedNow(testNow)), forecast.WithNoise(zeroNoise))

	return NewServer(cfg, engine, forecast.NewReporter(engine), store, cache.Disabled{})
}

func doRequest(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
}

func TestHealthCheck(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "OPTIONS", "/api/forecast", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetForecast(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/forecast?days=5", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Model      string            `json:"model"`
		Mode       string            `json:"mode"`
		Forecast   []forecast.Record `json:"forecast"`
		Historical []dataset.Point   `json:"historical"`
	}
	decodeBody(t, rr, &body)

	assert.Equal(t, "random_forest", body.Model)
	assert.Equal(t, "ok", body.Mode)
	require.Len(t, body.Forecast, 5)
	assert.Equal(t, "2024-03-11", body.Forecast[0].Date)
	assert.NotEmpty(t, body.Historical)
}

func TestGetForecastValidation(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"non-numeric days", "/api/forecast?days=abc", http.StatusBadRequest},
		{"zero days", "/api/forecast?days=0", http.StatusBadRequest},
		{"negative days", "/api/forecast?days=-3", http.StatusBadRequest},
		{"days above cap", "/api/forecast?days=400", http.StatusBadRequest},
		{"bad store", "/api/forecast?store=abc", http.StatusBadRequest},
		{"defaults", "/api/forecast", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(s, "GET", tt.target, "")
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestGetForecastUnready(t *testing.T) {
	rr := doRequest(newTestServer(t, false), "GET", "/api/forecast", "")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "model not loaded", body["error"])
}

func TestGetForecastNamedModelDegrades(t *testing.T) {
	// Explicit model selection bypasses the readiness gate; an unknown model
	// serves the fallback forecast instead of an error.
	rr := doRequest(newTestServer(t, false), "GET", "/api/forecast?model=prophet", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Model string `json:"model"`
		Mode  string `json:"mode"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, "fallback", body.Model)
	assert.Equal(t, "degraded", body.Mode)
}

func TestPostForecastBulk(t *testing.T) {
	s := newTestServer(t, true)

	rr := doRequest(s, "POST", "/api/forecast/bulk", `{"products":["Rice","Sugar"],"days":3}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Forecasts map[string]forecast.Result `json:"forecasts"`
	}
	decodeBody(t, rr, &body)
	require.Len(t, body.Forecasts, 2)
	assert.Len(t, body.Forecasts["Rice"].Records, 3)
	assert.Len(t, body.Forecasts["Sugar"].Records, 3)
}

func TestPostForecastBulkValidation(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"no products", `{"products":[]}`, http.StatusBadRequest},
		{"negative days", `{"products":["Rice"],"days":-1}`, http.StatusBadRequest},
		{"defaults applied", `{"products":["Rice"]}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(s, "POST", "/api/forecast/bulk", tt.body)
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestPostForecastBulkUnready(t *testing.T) {
	rr := doRequest(newTestServer(t, false), "POST", "/api/forecast/bulk", `{"products":["Rice"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGetHistorical(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/historical?days=14", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Product string          `json:"product"`
		Mode    string          `json:"mode"`
		Data    []dataset.Point `json:"data"`
		Count   int             `json:"count"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, "all", body.Product)
	assert.Equal(t, "degraded", body.Mode) // synthetic dataset
	assert.Equal(t, len(body.Data), body.Count)
	assert.NotEmpty(t, body.Data)
}

func TestGetHistoricalRealData(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()
	csv := "date,product,store_nbr,unit_sales\n2024-03-08,Rice,44,120\n2024-03-09,Rice,44,130\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.Dir, "train.csv"), []byte(csv), 0o644))

	store := dataset.Load(cfg.Data, dataset.WithNow(fixedNow(testNow)))
	registry := model.NewRegistry("random_forest", model.DefaultSchema(), model.DefaultMetrics())
	engine := forecast.NewEngine(cfg.Forecast, cfg.Features, registry, store,
		forecast.WithNow(fixedNow(testNow)), forecast.WithNoise(zeroNoise))
	s := NewServer(cfg, engine, forecast.NewReporter(engine), store, cache.Disabled{})

	rr := doRequest(s, "GET", "/api/historical?days=7&product=Rice", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Mode  string          `json:"mode"`
		Data  []dataset.Point `json:"data"`
		Count int             `json:"count"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, "ok", body.Mode)
	assert.Equal(t, 2, body.Count)
}

func TestGetProducts(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/products", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Products []string `json:"products"`
		Stores   []int    `json:"stores"`
		Source   string   `json:"source"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, dataset.DefaultProducts, body.Products)
	assert.Equal(t, []int{dataset.DefaultStore}, body.Stores)
	assert.Equal(t, "synthetic", body.Source)
}

func TestGetCategories(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/categories", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Categories []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"categories"`
	}
	decodeBody(t, rr, &body)
	require.Len(t, body.Categories, 5)
	assert.Equal(t, "rice", body.Categories[0].ID)
}

func TestGetStatistics(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/statistics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Product    string             `json:"product"`
		Statistics dataset.Statistics `json:"statistics"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, "all", body.Product)
	assert.Greater(t, body.Statistics.Count, 0)
	assert.GreaterOrEqual(t, body.Statistics.Max, body.Statistics.Min)
}

func TestGetKPIs(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/kpis?product=Rice", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body forecast.KPIs
	decodeBody(t, rr, &body)
	assert.Equal(t, "kg", body.AvgDailySales.Unit)
	assert.Equal(t, "Predicted", body.Next7DayDemand.Label)
}

func TestGetModels(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/models", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Models []model.Info `json:"models"`
	}
	decodeBody(t, rr, &body)
	require.NotEmpty(t, body.Models)

	found := false
	for _, m := range body.Models {
		if m.ID == "random_forest" {
			found = true
			assert.Equal(t, "ready", m.Status)
		}
	}
	assert.True(t, found)
}

func TestGetModelMetrics(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/api/model/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body forecast.Snapshot
	decodeBody(t, rr, &body)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, model.DefaultMetrics().ModelType, body.ModelType)
	assert.NotEmpty(t, body.LastUpdated)
}

func TestAdminReloadAuth(t *testing.T) {
	t.Setenv("FORECAST_ADMIN_SECRET", "test-secret")
	s := newTestServer(t, true)
	s.cfg.Model.Dir = t.TempDir() // reload finds no artifacts, still succeeds

	rr := doRequest(s, "POST", "/api/admin/reload", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest("POST", "/api/admin/reload", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest("POST", "/api/admin/reload", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "reloaded", body.Status)
}

func TestRootHandler(t *testing.T) {
	rr := doRequest(newTestServer(t, true), "GET", "/", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Service   string   `json:"service"`
		Endpoints []string `json:"endpoints"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, "demand-forecast-engine", body.Service)
	assert.NotEmpty(t, body.Endpoints)
}
