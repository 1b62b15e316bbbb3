package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/refis-sim/refis-sim/internal/app"
	"github.com/refis-sim/refis-sim/internal/bundle"
	"github.com/refis-sim/refis-sim/internal/export"
	"github.com/refis-sim/refis-sim/internal/observability"
	"github.com/refis-sim/refis-sim/internal/platform/cache"
	"github.com/refis-sim/refis-sim/internal/platform/db"
	"github.com/refis-sim/refis-sim/internal/report"
	"github.com/refis-sim/refis-sim/internal/simulation"
	"github.com/refis-sim/refis-sim/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := simulation.Migrate(ctx, pool); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	repo := simulation.NewRepository(pool)
	consolidationCache := simulation.NewCache(redisClient, cfg.ConsolidationTTL)
	simService := simulation.NewService(repo, consolidationCache)
	simHandler := simulation.NewHandler(logger, simService, metrics)

	bundleHandler := bundle.NewHandler(logger, bundle.NewService(repo, consolidationCache))
	exportHandler := export.NewHandler(logger, repo)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	reportStore := report.NewStore(redisClient, cfg.ReportTTL)
	reportHandler := report.NewHandler(logger, jobClient, reportStore)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SimulationHandler: simHandler,
		BundleHandler:     bundleHandler,
		ExportHandler:     exportHandler,
		ReportHandler:     reportHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
