package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	BackendWorkersAI   = "workers-ai"
	BackendHuggingFace = "huggingface"
	BackendVADER       = "vader"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" default:"feedback.db"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	ClassifierBackend   string        `env:"CLASSIFIER_BACKEND" default:"workers-ai"`
	CloudflareAccountID string        `env:"CLOUDFLARE_ACCOUNT_ID"`
	CloudflareAPIToken  string        `env:"CLOUDFLARE_API_TOKEN"`
	WorkersAIModel      string        `env:"WORKERS_AI_MODEL" default:"@cf/huggingface/distilbert-sst-2-int8"`
	HuggingFaceAPIToken string        `env:"HUGGINGFACE_API_TOKEN"`
	HuggingFaceModel    string        `env:"HUGGINGFACE_MODEL" default:"distilbert/distilbert-base-uncased-finetuned-sst-2-english"`
	ClassifierTimeout   time.Duration `env:"CLASSIFIER_TIMEOUT" default:"10s"`

	ValkeyAddress          string        `env:"VALKEY_ADDRESS"`
	ValkeyPassword         string        `env:"VALKEY_PASSWORD"`
	ClassificationCacheTTL time.Duration `env:"CLASSIFICATION_CACHE_TTL" default:"24h"`

	AnalyzeInterval  time.Duration `env:"ANALYZE_INTERVAL" default:"0s"`
	AnalyzeBatchSize int           `env:"ANALYZE_BATCH_SIZE" default:"10"`

	SlackBotToken     string `env:"SLACK_BOT_TOKEN"`
	SlackAlertChannel string `env:"SLACK_ALERT_CHANNEL"`

	GitHubWebhookSecret string `env:"GITHUB_WEBHOOK_SECRET"`
	GitHubToken         string `env:"GITHUB_TOKEN"`

	DiscordBotToken   string `env:"DISCORD_BOT_TOKEN"`
	DiscordChannelIDs string `env:"DISCORD_CHANNEL_IDS"`

	IngestRatePerSecond float64 `env:"INGEST_RATE_PER_SECOND" default:"5"`
	IngestBurst         int     `env:"INGEST_BURST" default:"20"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.ClassifierBackend {
	case BackendWorkersAI:
		if cfg.CloudflareAccountID == "" {
			return errors.New("CLOUDFLARE_ACCOUNT_ID is required")
		}
		if cfg.CloudflareAPIToken == "" {
			return errors.New("CLOUDFLARE_API_TOKEN is required")
		}
	case BackendHuggingFace:
		if cfg.HuggingFaceAPIToken == "" {
			return errors.New("HUGGINGFACE_API_TOKEN is required")
		}
	case BackendVADER:
	default:
		return fmt.Errorf("CLASSIFIER_BACKEND must be one of: %s, %s, %s", BackendWorkersAI, BackendHuggingFace, BackendVADER)
	}

	if cfg.ClassifierTimeout <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT must be positive")
	}
	if cfg.AnalyzeInterval < 0 {
		return errors.New("ANALYZE_INTERVAL must not be negative")
	}
	if cfg.AnalyzeBatchSize <= 0 {
		return errors.New("ANALYZE_BATCH_SIZE must be positive")
	}
	if (cfg.SlackBotToken == "") != (cfg.SlackAlertChannel == "") {
		return errors.New("SLACK_BOT_TOKEN and SLACK_ALERT_CHANNEL must be set together")
	}
	if cfg.IngestRatePerSecond > 0 && cfg.IngestBurst <= 0 {
		return errors.New("INGEST_BURST must be positive when rate limiting is enabled")
	}

	return nil
}

// SlackAlertsEnabled は高優先度通知を送るかどうか
func (c *Config) SlackAlertsEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAlertChannel != ""
}

func (c *Config) DiscordChannels() []string {
	return splitList(c.DiscordChannelIDs)
}

func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
