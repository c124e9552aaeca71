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
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/stockdesk/stockdesk/internal/app"
	"github.com/stockdesk/stockdesk/internal/backend"
	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/dashboard"
	"github.com/stockdesk/stockdesk/internal/invoicing"
	"github.com/stockdesk/stockdesk/internal/observability"
	"github.com/stockdesk/stockdesk/internal/platform/cache"
	"github.com/stockdesk/stockdesk/internal/reports"
	"github.com/stockdesk/stockdesk/internal/shared"
	"github.com/stockdesk/stockdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobs(ctx, cfg, logger, os.Args[2:], os.Stdout))
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, 0)
	if err != nil {
		logger.Warn("redis unavailable, using in-process storage", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	api := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	if err := api.Ping(ctx); err != nil {
		logger.Warn("backend ping", slog.String("base_url", cfg.BackendBaseURL), slog.Any("error", err))
	}

	metrics := observability.NewMetrics()
	money := reports.NewMoney(language.English)

	catalogService := catalog.NewService(api, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	reportService := reports.NewService(api, reports.NewCache(redisClient, cfg.ReportCacheTTL), logger)
	reportHandler := reports.NewHandler(logger, reportService, money)

	invoiceService := invoicing.NewService(api, draftStore(redisClient, cfg.DraftTTL), invoicing.ServiceConfig{
		Logger:      logger,
		Guard:       shared.NewIdempotencyStore(redisClient, time.Minute),
		Invalidator: reportService,
		Recorder:    metrics,
	})
	invoiceHandler := invoicing.NewHandler(logger, invoiceService)

	dashboardService := dashboard.NewService(catalogService, reportService, metrics, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, money)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalogHandler,
		InvoiceHandler:   invoiceHandler,
		ReportHandler:    reportHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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

func draftStore(client *redis.Client, ttl time.Duration) invoicing.Store {
	if client == nil {
		return invoicing.NewMemoryStore(ttl)
	}
	return invoicing.NewRedisStore(client, ttl)
}
