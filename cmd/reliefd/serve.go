package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"relief-ops-backend/internal/api"
	"relief-ops-backend/internal/db"
	"relief-ops-backend/internal/escalation"
	"relief-ops-backend/internal/intel"
	"relief-ops-backend/internal/notification"
	"relief-ops-backend/internal/store"
	"relief-ops-backend/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

func runServe(parent context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	gormDB, err := db.Open(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", zap.Error(err))
		return err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(gormDB, logger); err != nil {
			logger.Error("failed to migrate database", zap.Error(err))
			return err
		}
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}
	appStore := store.NewGormStore(gormDB)

	webpushOptions := notification.Options(cfg.Push)
	if webpushOptions == nil {
		logger.Warn("VAPID keys are not configured, push notifications are disabled")
	}
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions, logger)
	escalationSvc := escalation.NewService(cfg, appStore, pool, logger)

	weather := upstream.NewWeatherClient(cfg.Weather)
	defer weather.Close()
	if !weather.Configured() {
		logger.Warn("weather API key is not configured, /api/weather will answer 503")
	}
	geocoder := upstream.NewGeocoder(cfg.Geocoding)
	defer geocoder.Close()

	handler := api.NewHandler(api.Deps{
		Store:      appStore,
		Escalation: escalationSvc,
		Intel:      intel.NewCalculator(cfg.ResourceIntel),
		Weather:    weather,
		Geocoder:   geocoder,
		WebPush:    webpushOptions,
		Logger:     logger,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(cfg, handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pool.Start(gctx)
		pool.Wait()
		return nil
	})

	g.Go(func() error {
		escalationSvc.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping services")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}

func runMigrate() error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := db.Open(&cfg.Database, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}
	return db.Migrate(gormDB, logger)
}
