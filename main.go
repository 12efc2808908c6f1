package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adseawright/flight-price-backend/catalog"
	"github.com/adseawright/flight-price-backend/config"
	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/handlers"
	"github.com/adseawright/flight-price-backend/metrics"
	"github.com/adseawright/flight-price-backend/pipeline"
	"github.com/adseawright/flight-price-backend/services"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	initDB := flag.Bool("init-db", false, "rebuild the lookup store from the training artifacts and exit")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if *configPath == "" {
		if _, err := os.Stat("config/config.yaml"); err == nil {
			*configPath = "config/config.yaml"
		}
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Error loading configuration: %v", err)
	}
	configureLogger(logger, cfg.Server)
	logger.WithFields(logrus.Fields{
		"config": *configPath,
		"driver": cfg.Database.Driver,
		"port":   cfg.Server.Port,
	}).Info("Configuration loaded")

	store, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Error initializing lookup store: %v", err)
	}
	defer store.Close()

	if *initDB {
		report, err := services.NewSeedService(store, cfg.Data, logger).Run(context.Background())
		if err != nil {
			store.Close()
			logger.Fatalf("Error rebuilding lookup store: %v", err)
		}
		logger.WithFields(logrus.Fields{
			"airlines":         report.Airlines,
			"cities":           report.Cities,
			"stops_categories": report.StopsCategories,
			"class_categories": report.ClassCategories,
			"routes_inserted":  report.RoutesInserted,
			"routes_skipped":   report.RoutesSkipped,
		}).Info("Lookup store rebuilt")
		return
	}

	if err := serve(cfg, store, logger); err != nil {
		store.Close()
		logger.Fatalf("Server error: %v", err)
	}
}

func configureLogger(logger *logrus.Logger, cfg config.ServerConfig) {
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func serve(cfg *config.Config, store *database.Store, logger *logrus.Logger) error {
	var (
		cat    *catalog.Catalog
		linear *pipeline.Linear
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		cat, err = catalog.Load(cfg.Data.CategoryMapping)
		return err
	})
	g.Go(func() error {
		var err error
		linear, err = pipeline.LoadLinear(cfg.Data.Pipeline)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"category_mapping": cfg.Data.CategoryMapping,
		"pipeline":         cfg.Data.Pipeline,
	}).Info("Category mapping and pipeline loaded")

	lock, err := database.AcquireServeLock(store.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.WithError(err).Warn("Failed to release serve lock")
		}
	}()

	handler := handlers.NewHandler(
		services.NewFilterService(store, cat, logger),
		services.NewPredictionService(linear, logger),
		store,
		metrics.NewMetricsRegistry(),
		logger,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on http://localhost:%s", cfg.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
