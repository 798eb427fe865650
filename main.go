package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"demand-forecast-engine/api"
	"demand-forecast-engine/cache"
	"demand-forecast-engine/config"
	"demand-forecast-engine/dataset"
	"demand-forecast-engine/forecast"
	"demand-forecast-engine/model"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; environment overrides still apply without it
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}
	setupLogging()

	log := logrus.WithField("component", "main")
	log.Info("starting demand forecast engine")

	configManager, err := config.NewConfigManager("config.json")
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	cfg := configManager.GetConfig()
	log.Info("configuration loaded")

	// Dataset is loaded once and read-only for the process lifetime.
	store := dataset.Load(cfg.Data)
	log.WithFields(logrus.Fields{
		"source":   store.Source(),
		"rows":     store.Len(),
		"products": len(store.Products()),
	}).Info("dataset ready")

	// Model registry: regression artifact plus naive models trained on the
	// loaded history. Missing artifacts degrade, they never abort startup.
	registry := model.LoadRegistry(cfg.Model, store)

	engine := forecast.NewEngine(cfg.Forecast, cfg.Features, registry, store)
	reporter := forecast.NewReporter(engine)
	forecastCache := cache.New(cfg.Cache)

	apiServer := api.NewServer(cfg, engine, reporter, store, forecastCache)
	log.Info("HTTP API server initialized")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	printStartupInfo(cfg, store, engine)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}
	log.Info("server gracefully stopped")
}

// setupLogging configures logrus from the environment
func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("FORECAST_LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

func printStartupInfo(cfg *config.Config, store *dataset.Store, engine *forecast.Engine) {
	ready := "not_loaded"
	if engine.IsReady() {
		ready = "ready"
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Demand Forecast Engine Started")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("HTTP API:      http://localhost%s\n", cfg.Server.Port)
	fmt.Printf("Dataset:       %s (%d rows)\n", store.Source(), store.Len())
	fmt.Printf("Default model: %s (%s)\n", cfg.Model.DefaultModel, ready)

	fmt.Println("\nAvailable Endpoints:")
	fmt.Println("  GET  /api/health          - Health check")
	fmt.Println("  GET  /api/forecast        - Demand forecast (days, product, store, model)")
	fmt.Println("  POST /api/forecast/bulk   - Multi-product forecast")
	fmt.Println("  GET  /api/historical      - Historical sales (days, product)")
	fmt.Println("  GET  /api/products        - Known products and stores")
	fmt.Println("  GET  /api/categories      - Dashboard categories")
	fmt.Println("  GET  /api/statistics      - Product sales statistics")
	fmt.Println("  GET  /api/kpis            - Dashboard KPIs")
	fmt.Println("  GET  /api/models          - Available models")
	fmt.Println("  GET  /api/model/metrics   - Model quality metrics")
	fmt.Println("  POST /api/admin/reload    - Reload model artifacts")
	fmt.Println("  GET  /metrics             - Prometheus metrics")

	fmt.Println("\nExample Usage:")
	fmt.Printf("  curl \"http://localhost%s/api/forecast?days=7&product=Rice\"\n", cfg.Server.Port)
	fmt.Printf("  curl \"http://localhost%s/api/historical?days=30\"\n", cfg.Server.Port)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Press Ctrl+C to gracefully shutdown")
	fmt.Println(strings.Repeat("=", 60) + "\n")
}
