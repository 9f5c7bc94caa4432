package services

import (
	"context"
	"log/slog"

	"feedback-triage/metrics"
	"feedback-triage/models"
)

// 取り込み経路（メトリクスのラベル）
const (
	IngestPathAPI           = "api"
	IngestPathGitHubWebhook = "github_webhook"
	IngestPathGitHubImport  = "github_import"
	IngestPathDiscord       = "discord"
)

// IngestFeedback は入力を検証して登録する
// ExternalID が既に登録済みなら何もせず created=false を返す
func IngestFeedback(ctx context.Context, store FeedbackStore, req models.CreateFeedbackRequest, path string) (*models.Feedback, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	if req.ExternalID != nil {
		exists, err := store.ExistsByExternalID(ctx, *req.ExternalID)
		if err != nil {
			return nil, false, err
		}
		if exists {
			slog.Debug("feedback already ingested", slog.String("external_id", *req.ExternalID))
			return nil, false, nil
		}
	}

	fb, err := store.Insert(ctx, req)
	if err != nil {
		return nil, false, err
	}

	metrics.FeedbackIngestedTotal.WithLabelValues(string(fb.Source), path).Inc()
	slog.Info("feedback ingested",
		slog.Uint64("feedback_id", uint64(fb.ID)),
		slog.String("source", string(fb.Source)),
		slog.String("path", path))
	return fb, true, nil
}
