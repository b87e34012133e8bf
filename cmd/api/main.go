package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/regdoc-analyzer/internal/application"
	"github.com/bryanwahyu/regdoc-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/regdoc-analyzer/internal/application/documents"
	"github.com/bryanwahyu/regdoc-analyzer/internal/config"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/extract"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/regdoc-analyzer/internal/infra/staging"
	"github.com/bryanwahyu/regdoc-analyzer/internal/logging"
	"github.com/bryanwahyu/regdoc-analyzer/internal/middleware"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env file error: %v", err)
	}

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.LogLevel()))

	ctx := context.Background()
	clock := application.SystemClock{}

	llm := openai.NewClient(openai.Config{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
		JSONMode:  cfg.LLM.JSONMode,
	}, logger)
	if cfg.LLM.APIKey == "" {
		logger.Warn("llm.api_key_missing", "detail", "analysis requests will fail until LLM_API_KEY is set")
	}

	analyzer, err := analysis.NewService(llm, analysis.Options{
		MaxChars:     cfg.Analysis.MaxChars,
		StrictSchema: cfg.Analysis.StrictSchema,
		Clock:        clock,
		Logger:       logger,
	})
	if err != nil {
		fatal(logger, "analysis init error", err)
	}

	extractor, err := extract.New(ctx, logger)
	if err != nil {
		fatal(logger, "extractor init error", err)
	}

	area, err := staging.New(cfg.Staging.Dir, logger)
	if err != nil {
		fatal(logger, "staging init error", err)
	}

	docs := &documents.Service{
		Extractor:        extractor,
		Analyzer:         analyzer,
		Staging:          area,
		Clock:            clock,
		Logger:           logger,
		BatchConcurrency: cfg.Batch.Concurrency,
	}

	metrics := middleware.NewMetrics(clock.Now())
	handler := httpserver.NewRouter(docs, httpserver.Options{
		Logger:         logger,
		Clock:          clock,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes(),
		Metrics:        metrics,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server.start",
			"addr", srv.Addr,
			"port", cfg.Server.Port,
			"debug", cfg.Server.Debug,
			"model", llm.Model(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server error", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("server.shutdown")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("server.shutdown_error", "error", err)
	}

	stats := metrics.Snapshot()
	logger.Info("server.stats",
		"requests_total", stats.RequestsTotal,
		"requests_success", stats.RequestsSuccess,
		"requests_rejected", stats.RequestsRejected,
		"requests_failed", stats.RequestsFailed,
		"uptime", stats.Uptime.Round(time.Second).String(),
	)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
