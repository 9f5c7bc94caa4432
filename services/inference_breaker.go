package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"feedback-triage/metrics"
)

// BreakerSettings は分類器用サーキットブレーカーの設定
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "classifier",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// BreakerInferrer は分類器がダウンしている間、呼び出しを即座に失敗させる
// リトライはしない
type BreakerInferrer struct {
	next    SentimentInferrer
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerInferrer(next SentimentInferrer, settings BreakerSettings) *BreakerInferrer {
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(float64(gobreaker.StateClosed))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// 到達不能のみを失敗として数える（応答の形式不正やキャンセルは数えない）
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrClassifierUnavailable)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			slog.Warn("circuit breaker state changed",
				slog.String("component", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &BreakerInferrer{next: next, breaker: breaker}
}

func (b *BreakerInferrer) Infer(ctx context.Context, text string) ([]Classification, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Infer(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return result.([]Classification), nil
}

func (b *BreakerInferrer) State() gobreaker.State {
	return b.breaker.State()
}
