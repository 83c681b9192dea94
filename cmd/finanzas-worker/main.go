package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/analysis"
	"finanzas/internal/cache"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"
	"finanzas/internal/worker"
)

const startupPendingLimit = 50

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting finanzas-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY is required for the analysis worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	analyzer, err := analysis.NewAnalyzer(ctx, analysis.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		Logger: logger.Logger,
	})
	if err != nil {
		logger.Error("Failed to initialize analyzer", log.FieldError, err.Error())
		os.Exit(1)
	}

	responseCache := cache.NewLRUCache[string](cfg.AnalysisCacheMax, cfg.AnalysisCacheTTL)
	analyzer.WithCache(responseCache)

	cacheManager := cache.NewManager()
	cacheManager.Register(responseCache)
	cacheManager.StartCleanup(cfg.AnalysisCacheTTL)
	defer cacheManager.Stop()

	analysisWorker := worker.NewAnalysisWorker(repo, analyzer, core.DefaultCatalog(), worker.AnalysisWorkerConfig{
		TxLimit:                 cfg.AnalysisTxLimit,
		DefaultExchangeRate:     cfg.DefaultExchangeRate,
		AdjustmentsInPeriodFlow: cfg.AdjustmentsInPeriodFlow,
	})

	// Requests queued while no worker was running have pending rows but no
	// live message, so drain those first.
	if err := analysisWorker.ProcessPendingAnalyses(ctx, startupPendingLimit); err != nil {
		logger.Error("Startup pending check failed", log.FieldError, err.Error())
	}

	amqpClient, err := amqp.NewClientWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeAnalysisRequests(gctx, func(msg *amqp.AnalysisRequestMessage) error {
			return analysisWorker.HandleAnalysisRequest(gctx, msg)
		})
	})

	// Periodic sweep for pending rows whose message was lost in flight.
	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := analysisWorker.ProcessPendingAnalyses(gctx, startupPendingLimit); err != nil {
					logger.Error("Periodic pending check failed", log.FieldError, err.Error())
				}
			}
		}
	})

	logger.Info("Worker ready", "queue", cfg.AMQPQueue, "model", cfg.GeminiModel)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
