// Command worker consumes queued analysis tasks from Redpanda and runs
// the extraction, pre-check and AI pipelines.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/ai"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/latexc"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/queue/redpanda"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/repo/postgres"
	"github.com/aadhil-anwer/resume-analyzer/internal/adapter/storage"
	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/extract"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
	"github.com/aadhil-anwer/resume-analyzer/internal/pipeline"
	"github.com/aadhil-anwer/resume-analyzer/internal/service/ratelimiter"
)

const consumerGroup = "resume-analyzer-workers"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	// Dedicated /metrics endpoint so Prometheus can scrape job-queue
	// metrics from the worker process.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	uploadRepo := postgres.NewUploadRepo(pool)
	analysisRepo := postgres.NewAnalysisRepo(pool)
	matchRepo := postgres.NewJDMatchRepo(pool)
	latexRepo := postgres.NewLatexRepo(pool)

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

	// AI calls are throttled by a shared Redis token bucket so several
	// workers stay within one global provider budget. Without Redis the
	// limiter fails open.
	var limiter *ratelimiter.RedisLuaLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimiter.NewRedisLuaLimiter(rdb, ratelimiter.NewBucketConfigFromPerMinute(cfg.AIRatePerMin))
	}
	waiter := &ratelimiter.AIWaiter{Limiter: limiter, Key: "ai"}

	openAI := ai.NewOpenAI(cfg, waiter)
	p := &pipeline.Pipeline{
		Uploads:   uploadRepo,
		Analyses:  analysisRepo,
		Matches:   matchRepo,
		Runs:      latexRepo,
		Store:     store,
		Extractor: extract.New(cfg.PdftoppmBin, cfg.TesseractBin, cfg.OCRDPI),
		Scoring:   ai.NewScoring(cfg, waiter),
		Matching:  ai.NewMatch(cfg, openAI),
		Latex:     ai.NewLatex(cfg, openAI),
		Compiler:  latexc.New(cfg.TectonicBin, cfg.TectonicTimeout),
	}

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, consumerGroup, cfg.ConsumerMaxConcurrency, p.Handle)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		slog.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
