package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/renohaus/renohaus-backend/api/routes"
	"github.com/renohaus/renohaus-backend/internal/images"
	"github.com/renohaus/renohaus-backend/internal/journeys"
	"github.com/renohaus/renohaus-backend/internal/templates"
	"github.com/renohaus/renohaus-backend/pkg/config"
	"github.com/renohaus/renohaus-backend/pkg/db"
	"github.com/renohaus/renohaus-backend/pkg/logger"
	"github.com/renohaus/renohaus-backend/pkg/metrics"
	"github.com/renohaus/renohaus-backend/pkg/migrate"
	pkgredis "github.com/renohaus/renohaus-backend/pkg/redis"
	"github.com/renohaus/renohaus-backend/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = pkgredis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency replay protection disabled")
	}

	assetStore, err := storage.NewDiskStore(cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to open asset store", err)
		os.Exit(1)
	}

	registry := templates.NewRegistry()

	journeysService, err := journeys.NewService(journeys.NewRepository(dbClient.DB()), dbClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to create journeys service", err)
		os.Exit(1)
	}

	imagesService, err := images.NewService(images.NewRepository(dbClient.DB()), dbClient, assetStore, logg, cfg.Uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to create images service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			registry,
			journeysService,
			imagesService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeout); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
