// Command server starts the resume analyzer HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/httpserver"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/queue/redpanda"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/repo/postgres"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/storage"
	"github.com/aadhil-anwer/resume-analyzer/internal/app"
	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
	"github.com/aadhil-anwer/resume-analyzer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("db migrate failed", slog.Any("error", err))
		os.Exit(1)
	}

	uploadRepo := postgres.NewUploadRepo(pool)
	analysisRepo := postgres.NewAnalysisRepo(pool)
	matchRepo := postgres.NewJDMatchRepo(pool)
	latexRepo := postgres.NewLatexRepo(pool)

	if cfg.DataRetentionDays > 0 {
		cleanup := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanup.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.DataRetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	var store domain.FileStore
	if cfg.MinIOEnabled() {
		store, err = storage.NewMinIO(ctx, cfg)
	} else {
		store, err = storage.NewLocal(cfg.StorageDir)
	}
	if err != nil {
		slog.Error("object store init failed", slog.Any("error", err))
		os.Exit(1)
	}

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	analyzeSvc := usecase.NewAnalyzeService(uploadRepo, analysisRepo, store, producer)
	matchSvc := usecase.NewJDMatchService(uploadRepo, matchRepo, producer)
	latexSvc := usecase.NewLatexService(uploadRepo, analysisRepo, latexRepo, store, producer)

	srv := httpserver.NewServer(cfg, analyzeSvc, matchSvc, latexSvc)
	srv.DBCheck = func(ctx context.Context) error { return pool.Ping(ctx) }
	srv.QueueCheck = producer.Ping
	srv.StoreCheck = func(ctx context.Context) error {
		_, err := store.Get(ctx, "readyz-probe")
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}

	handler := app.BuildRouter(cfg, srv)
	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
