package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/cost-report/internal/analytics"
	"github.com/nulzo/cost-report/internal/config"
	"github.com/nulzo/cost-report/internal/llm"
	"github.com/nulzo/cost-report/internal/platform/logger"
	"github.com/nulzo/cost-report/internal/platform/otel"
	"github.com/nulzo/cost-report/internal/report"
	"github.com/nulzo/cost-report/internal/server"
	"github.com/nulzo/cost-report/internal/store/backend"
	"github.com/nulzo/cost-report/internal/store/cache"
	"github.com/nulzo/cost-report/internal/version"
	"go.uber.org/zap"

	// register llm backends
	_ "github.com/nulzo/cost-report/internal/llm/gemini"
	_ "github.com/nulzo/cost-report/internal/llm/openai"
)

func main() {
	log := logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.InitTracer(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialise tracing", zap.Error(err))
	}

	repo, err := backend.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open provider catalog", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	reportCache, err := cache.New(cache.Options{
		Driver:        cfg.Cache.Driver,
		Size:          cfg.Cache.Size,
		TTL:           cfg.Cache.TTL,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		RedisPrefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		log.Fatal("Failed to create report cache", zap.Error(err))
	}

	client, err := llm.New(cfg.LLM)
	if err != nil {
		log.Fatal("Failed to create llm client", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
	}
	if cfg.LLM.APIKey == "" {
		log.Warn("No LLM API key configured; reports that miss the cache and price memo will fail")
	}

	ingestor := analytics.NewIngestor(log, repo.Runs())
	ingestor.Start(context.Background())

	generator := report.NewGenerator(repo.Providers(), reportCache, client, log,
		report.WithRecorder(ingestor),
		report.WithModelOptions(report.ModelOptions{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
	)

	go version.CheckForUpdates(ctx, cfg.UpdateCheck.URL, cfg.UpdateCheck.Current, log)

	srv := server.New(cfg, log, repo, generator).HTTPServer()

	go func() {
		log.Info("Starting cost report server",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Database.Driver),
			zap.String("cache", cfg.Cache.Driver),
			zap.String("llm", client.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	ingestor.Stop()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
}
