package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/config"
	dbRedis "github.com/tektome/ocrindex/internal/db/redis"
	logpkg "github.com/tektome/ocrindex/internal/logger"
	"github.com/tektome/ocrindex/internal/metrics"
	"github.com/tektome/ocrindex/internal/repository/jobqueue"
	vectorrepo "github.com/tektome/ocrindex/internal/repository/vector"
	"github.com/tektome/ocrindex/internal/transport/ocrstore"
	openaiEmb "github.com/tektome/ocrindex/internal/transport/openai"
	ingestuc "github.com/tektome/ocrindex/internal/usecase/ingest"
	"github.com/tektome/ocrindex/internal/version"
	"github.com/tektome/ocrindex/internal/worker"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ocrindex worker",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("queue", cfg.Queue.Name),
		zap.Int("workers", cfg.Queue.Workers),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterJobMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	texts := ocrstore.New(cfg.OCR.SampleDir)
	vectors := vectorrepo.New(store, cfg.Index.Name, cfg.Index.Namespace)
	queue := jobqueue.New(store, cfg.Queue.Name)

	ingestSvc := ingestuc.New(
		texts,
		embedder,
		vectors,
		queue,
		cfg.Index.Namespace,
		cfg.Queue.MaxRetries,
		time.Duration(cfg.Queue.RetryBackoffSec)*time.Second,
	)

	w, err := worker.New(queue, ingestSvc, cfg.Queue.Workers, time.Duration(cfg.Queue.PollSec)*time.Second, logger)
	if err != nil {
		logger.Fatal("Failed to create worker", zap.Error(err))
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Worker error", zap.Error(err))
	}

	logger.Info("Worker stopped gracefully")
}
