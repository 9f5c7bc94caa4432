package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLASSIFIER_BACKEND", "workers-ai")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acc123")
	t.Setenv("CLOUDFLARE_API_TOKEN", "cf-token")
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "feedback.db", cfg.SQLitePath)
	assert.Equal(t, "@cf/huggingface/distilbert-sst-2-int8", cfg.WorkersAIModel)
	assert.Equal(t, 10*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 24*time.Hour, cfg.ClassificationCacheTTL)
	assert.Equal(t, time.Duration(0), cfg.AnalyzeInterval)
	assert.Equal(t, 10, cfg.AnalyzeBatchSize)
	assert.Equal(t, 5.0, cfg.IngestRatePerSecond)
	assert.Equal(t, 20, cfg.IngestBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins())
	assert.False(t, cfg.SlackAlertsEnabled())
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ANALYZE_INTERVAL", "5m")
	t.Setenv("ANALYZE_BATCH_SIZE", "25")
	t.Setenv("DISCORD_CHANNEL_IDS", "111, 222,,333")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_ALERT_CHANNEL", "C12345")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.AnalyzeInterval)
	assert.Equal(t, 25, cfg.AnalyzeBatchSize)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.DiscordChannels())
	assert.True(t, cfg.SlackAlertsEnabled())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing CLOUDFLARE_ACCOUNT_ID",
			env:     map[string]string{"CLOUDFLARE_ACCOUNT_ID": ""},
			wantErr: "CLOUDFLARE_ACCOUNT_ID is required",
		},
		{
			name:    "missing CLOUDFLARE_API_TOKEN",
			env:     map[string]string{"CLOUDFLARE_API_TOKEN": ""},
			wantErr: "CLOUDFLARE_API_TOKEN is required",
		},
		{
			name:    "huggingface without token",
			env:     map[string]string{"CLASSIFIER_BACKEND": "huggingface"},
			wantErr: "HUGGINGFACE_API_TOKEN is required",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"CLASSIFIER_BACKEND": "gpt"},
			wantErr: "CLASSIFIER_BACKEND must be one of: workers-ai, huggingface, vader",
		},
		{
			name:    "zero batch size",
			env:     map[string]string{"ANALYZE_BATCH_SIZE": "0"},
			wantErr: "ANALYZE_BATCH_SIZE must be positive",
		},
		{
			name:    "negative interval",
			env:     map[string]string{"ANALYZE_INTERVAL": "-1m"},
			wantErr: "ANALYZE_INTERVAL must not be negative",
		},
		{
			name:    "slack token without channel",
			env:     map[string]string{"SLACK_BOT_TOKEN": "xoxb-test"},
			wantErr: "SLACK_BOT_TOKEN and SLACK_ALERT_CHANNEL must be set together",
		},
		{
			name:    "zero burst",
			env:     map[string]string{"INGEST_BURST": "0"},
			wantErr: "INGEST_BURST must be positive when rate limiting is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_VADERNeedsNoCredentials(t *testing.T) {
	t.Setenv("CLASSIFIER_BACKEND", "vader")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "")
	t.Setenv("CLOUDFLARE_API_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendVADER, cfg.ClassifierBackend)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{}, splitList(""))
	assert.Equal(t, []string{"a"}, splitList(" a "))
	assert.Equal(t, []string{"a", "b"}, splitList("a,,b,"))
}
