package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"feedback-triage/metrics"
	"feedback-triage/models"
)

// HighPriorityNotifier は分析で高優先度になったフィードバックを通知する
type HighPriorityNotifier interface {
	NotifyHighPriority(ctx context.Context, feedback models.Feedback, result models.AnalysisResult) error
}

// Analyzer は未分析フィードバックのバッチ分析を行う
type Analyzer struct {
	store    FeedbackStore
	inferrer SentimentInferrer
	clock    clockwork.Clock
	notifier HighPriorityNotifier
}

func NewAnalyzer(store FeedbackStore, inferrer SentimentInferrer, clock clockwork.Clock) *Analyzer {
	return &Analyzer{
		store:    store,
		inferrer: inferrer,
		clock:    clock,
	}
}

// WithNotifier は高優先度通知先を設定する（nil なら通知しない）
func (a *Analyzer) WithNotifier(notifier HighPriorityNotifier) *Analyzer {
	a.notifier = notifier
	return a
}

// RunBatch は未分析のフィードバックを最大 maxBatchSize 件、選択順に1件ずつ分析する
//
// 途中で失敗した場合はそこで中断してエラーを返す。それまでに書き込んだ分は
// 分析済みのまま残る（バッチ全体のロールバックはしない）。
func (a *Analyzer) RunBatch(ctx context.Context, maxBatchSize int) (*models.BatchResult, error) {
	start := a.clock.Now()

	items, err := a.store.ListUnanalyzed(ctx, maxBatchSize)
	if err != nil {
		metrics.AnalysisBatchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	results := make([]models.AnalysisResult, 0, len(items))
	for _, item := range items {
		result, err := a.analyzeItem(ctx, item)
		if err != nil {
			metrics.AnalysisBatchesTotal.WithLabelValues("error").Inc()
			slog.Error("batch analysis aborted",
				slog.Uint64("feedback_id", uint64(item.ID)),
				slog.Int("processed", len(results)),
				slog.String("error", err.Error()))
			return nil, err
		}
		results = append(results, result)
	}

	remaining, err := a.store.CountUnanalyzed(ctx)
	if err != nil {
		metrics.AnalysisBatchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.AnalysisBatchesTotal.WithLabelValues("success").Inc()
	metrics.UnanalyzedBacklog.Set(float64(remaining))

	slog.Info("batch analysis complete",
		slog.Int("processed", len(results)),
		slog.Int64("remaining", remaining),
		slog.Duration("elapsed", a.clock.Since(start)))

	return &models.BatchResult{
		Processed: len(results),
		Remaining: remaining,
		Items:     results,
	}, nil
}

func (a *Analyzer) analyzeItem(ctx context.Context, item models.Feedback) (models.AnalysisResult, error) {
	sentiment, err := AnalyzeSentiment(ctx, a.inferrer, item.Text)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("feedback %d: %w", item.ID, err)
	}

	score := CalculatePriorityScore(sentiment, item.Text, item.Timestamp, a.clock.Now())

	if err := a.store.UpdateAnalysis(ctx, item.ID, sentiment, score); err != nil {
		return models.AnalysisResult{}, err
	}

	metrics.FeedbackAnalyzedTotal.WithLabelValues(string(sentiment)).Inc()

	result := models.AnalysisResult{
		ID:            item.ID,
		Sentiment:     sentiment,
		PriorityScore: score,
	}

	if IsHighPriority(score) {
		metrics.HighPriorityFeedbackTotal.Inc()
		a.notify(ctx, item, result)
	}

	return result, nil
}

// notify の失敗はバッチを止めない
func (a *Analyzer) notify(ctx context.Context, item models.Feedback, result models.AnalysisResult) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.NotifyHighPriority(ctx, item, result); err != nil {
		slog.Warn("high priority notification failed",
			slog.Uint64("feedback_id", uint64(item.ID)),
			slog.String("error", err.Error()))
	}
}

// StartAnalysisScheduler は interval ごとに RunBatch を実行する
// ctx がキャンセルされるまでブロックする
func StartAnalysisScheduler(ctx context.Context, analyzer *Analyzer, clock clockwork.Clock, interval time.Duration, batchSize int) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("analysis scheduler started",
		slog.Duration("interval", interval),
		slog.Int("batch_size", batchSize))

	for {
		select {
		case <-ctx.Done():
			slog.Info("analysis scheduler stopped")
			return
		case <-ticker.Chan():
			if _, err := analyzer.RunBatch(ctx, batchSize); err != nil {
				slog.Warn("scheduled analysis failed", slog.String("error", err.Error()))
			}
		}
	}
}
