package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/reviewsense/internal/classifier"
	"github.com/JonMunkholm/reviewsense/internal/config"
	"github.com/JonMunkholm/reviewsense/internal/core"
	"github.com/JonMunkholm/reviewsense/internal/history"
	"github.com/JonMunkholm/reviewsense/internal/logging"
	"github.com/JonMunkholm/reviewsense/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"classifier_backend", cfg.Classifier.Backend,
		"max_document_size", cfg.Ingest.MaxDocumentSize,
		"max_concurrent_analyses", cfg.Ingest.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("full configuration", "config", cfg.String())

	ctx := context.Background()

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		slog.Error("failed to open analysis history", "error", err)
		os.Exit(1)
	}
	if store != nil {
		defer store.Close()
	}

	model, err := classifier.Open(cfg.Classifier)
	if err != nil {
		slog.Error("failed to create classifier", "error", err)
		os.Exit(1)
	}

	// The server starts while the model loads; requests get MDL001 until it is ready.
	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Classifier.LoadTimeout)
	go func() {
		defer cancelLoad()
		if err := model.Load(loadCtx); err != nil {
			slog.Error("classifier failed to load", "error", err)
		}
	}()

	// history.Store is an interface; pass a true nil when history is disabled.
	var analysisStore core.AnalysisStore
	if store != nil {
		analysisStore = store
	}

	service := core.NewService(model, analysisStore, core.ServiceConfig{
		MaxDocumentSize:       cfg.Ingest.MaxDocumentSize,
		MaxBatchItems:         cfg.Batch.MaxItems,
		MaxInputLength:        cfg.Batch.MaxTextLength,
		MaxConcurrentAnalyses: cfg.Ingest.MaxConcurrent,
		MaxWaitTime:           cfg.Ingest.MaxWaitTime,
		AnalysisTimeout:       cfg.Ingest.Timeout,
		HistoryLimit:          cfg.History.ListLimit,
	},
		core.WithMaxConcurrency(cfg.Classifier.MaxConcurrency),
		core.WithCallTimeout(cfg.Classifier.CallTimeout),
		core.WithMaxTextLength(cfg.Classifier.MaxTextLength),
	)

	server, err := web.NewServer(service, cfg)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelLoad()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active analyses to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for analyses to complete", "active", status.Active)
			if err := service.WaitForAnalyses(shutdownCtx); err != nil {
				slog.Warn("analyses did not complete in time", "error", err)
			} else {
				slog.Info("all analyses completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}
