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

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"feedback-triage/config"
	"feedback-triage/handlers"
	"feedback-triage/logging"
	"feedback-triage/services"
	"feedback-triage/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	store := services.NewGormFeedbackStore(db, clock)

	inferrer, err := buildInferrer(cfg)
	if err != nil {
		return err
	}

	analyzer := services.NewAnalyzer(store, inferrer, clock)
	if cfg.SlackAlertsEnabled() {
		notifier := services.NewSlackNotifier(&http.Client{Timeout: 10 * time.Second}, cfg.SlackBotToken, cfg.SlackAlertChannel, "")
		if err := notifier.CheckAlertChannel(ctx); err != nil {
			slog.Warn("slack alerts disabled", slog.String("error", err.Error()))
		} else {
			analyzer.WithNotifier(notifier)
			slog.Info("slack alerts enabled", slog.String("channel", cfg.SlackAlertChannel))
		}
	}

	if cfg.AnalyzeInterval > 0 {
		go services.StartAnalysisScheduler(ctx, analyzer, clock, cfg.AnalyzeInterval, cfg.AnalyzeBatchSize)
	}

	if cfg.DiscordBotToken != "" {
		ingester, err := handlers.NewDiscordIngester(cfg.DiscordBotToken, store, cfg.DiscordChannels())
		if err != nil {
			return err
		}
		if err := ingester.Start(); err != nil {
			return err
		}
		defer ingester.Stop()
	}

	router := handlers.SetupRouter(handlers.RouterConfig{
		Store:               store,
		Analyzer:            analyzer,
		GitHubClient:        services.NewGitHubClient(ctx, cfg.GitHubToken),
		GitHubWebhookSecret: cfg.GitHubWebhookSecret,
		Clock:               clock,
		AnalyzeBatchSize:    cfg.AnalyzeBatchSize,
		IngestRatePerSecond: cfg.IngestRatePerSecond,
		IngestBurst:         cfg.IngestBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewHTTPHandler(router, cfg.CORSOrigins()),
		ReadHeaderTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", server.Addr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// buildInferrer は設定されたバックエンドにサーキットブレーカーとキャッシュを重ねる
func buildInferrer(cfg *config.Config) (services.SentimentInferrer, error) {
	httpClient := &http.Client{Timeout: cfg.ClassifierTimeout}

	var inferrer services.SentimentInferrer
	switch cfg.ClassifierBackend {
	case config.BackendWorkersAI:
		inferrer = services.NewBreakerInferrer(
			services.NewWorkersAIClient(httpClient, cfg.CloudflareAccountID, cfg.CloudflareAPIToken, cfg.WorkersAIModel),
			services.DefaultBreakerSettings())
	case config.BackendHuggingFace:
		inferrer = services.NewBreakerInferrer(
			services.NewHuggingFaceClient(httpClient, cfg.HuggingFaceAPIToken, cfg.HuggingFaceModel),
			services.DefaultBreakerSettings())
	case config.BackendVADER:
		inferrer = services.NewVADERInferrer()
	default:
		return nil, fmt.Errorf("unknown classifier backend: %s", cfg.ClassifierBackend)
	}
	slog.Info("sentiment classifier configured", slog.String("backend", cfg.ClassifierBackend))

	if cfg.ValkeyAddress == "" {
		return inferrer, nil
	}

	client, err := services.NewValkeyClient(cfg.ValkeyAddress, cfg.ValkeyPassword)
	if err != nil {
		// キャッシュなしでも分類はできる
		slog.Warn("classification cache disabled", slog.String("error", err.Error()))
		return inferrer, nil
	}
	cache := services.NewValkeyClassificationCache(client, cfg.ClassificationCacheTTL)
	return services.NewCachingInferrer(inferrer, cache), nil
}
