package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"strokeserve/config"
	"strokeserve/db"
	qhttp "strokeserve/http"
	"strokeserve/logging"
	"strokeserve/monitoring"
	"strokeserve/report"
	"strokeserve/service"
)

func main() {
	configPath := flag.String("config", envOr("STROKESERVE_CONFIG", "config.yaml"), "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load models; the service cannot run without all of them
	predictor, err := service.Load(modelSpecs(cfg))
	if err != nil {
		logger.Fatal("failed to load models", zap.Error(err))
	}
	logger.Info("models loaded", zap.Strings("models", predictor.Models()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Accuracy records
	accuracy, closeAccuracy, err := openAccuracySource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open accuracy source", zap.Error(err))
	}
	defer closeAccuracy()

	// 4. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, qhttp.Dependencies{
		Predictor: predictor,
		Accuracy:  accuracy,
		Logger:    logger,
		Metrics:   monitoring.NewMetricsCollector(),
	})
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}

// loadConfig falls back to the built-in defaults when no config file exists.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Config %s not found, using defaults", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func modelSpecs(cfg *config.Config) []service.ModelSpec {
	specs := make([]service.ModelSpec, len(cfg.Models))
	for i, m := range cfg.Models {
		specs[i] = service.ModelSpec{Key: m.Key, Type: m.Type, Path: m.Path, Encoder: m.Encoder}
	}
	return specs
}

func openAccuracySource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (report.Source, func(), error) {
	if cfg.Accuracy.Source == config.SourceSQLite {
		store, err := db.Open(cfg.Accuracy.Database)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("accuracy records from sqlite", zap.String("path", cfg.Accuracy.Database))
		return report.NewDBSource(store), func() { store.Close() }, nil
	}

	source, err := report.NewFileSource(cfg.Accuracy.Files, cfg.Accuracy.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Accuracy.Watch {
		watcher, err := report.NewWatcher(source, logger)
		if err != nil {
			logger.Warn("accuracy files will not be watched", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}
	return source, func() {}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
