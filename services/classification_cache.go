package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"

	"feedback-triage/metrics"
)

const classificationCachePrefix = "feedback:classification:"

// ClassificationCache は本文ごとの分類結果を保持する
type ClassificationCache interface {
	Get(ctx context.Context, key string) ([]Classification, bool, error)
	Set(ctx context.Context, key string, results []Classification) error
}

// CachingInferrer は同じ本文に対する分類器の再呼び出しを避ける
// キャッシュの障害は分類の失敗にしない
type CachingInferrer struct {
	next  SentimentInferrer
	cache ClassificationCache
}

func NewCachingInferrer(next SentimentInferrer, cache ClassificationCache) *CachingInferrer {
	return &CachingInferrer{next: next, cache: cache}
}

func classificationCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return classificationCachePrefix + hex.EncodeToString(sum[:])
}

func (c *CachingInferrer) Infer(ctx context.Context, text string) ([]Classification, error) {
	key := classificationCacheKey(text)

	cached, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.ClassificationCacheTotal.WithLabelValues("error").Inc()
		slog.Warn("classification cache lookup failed", slog.String("error", err.Error()))
	case ok:
		metrics.ClassificationCacheTotal.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.ClassificationCacheTotal.WithLabelValues("miss").Inc()
	}

	results, err := c.next.Infer(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, results); err != nil {
		slog.Warn("classification cache store failed", slog.String("error", err.Error()))
	}

	return results, nil
}

// ValkeyClassificationCache は valkey を使った ClassificationCache
type ValkeyClassificationCache struct {
	client valkey.Client
	ttl    time.Duration
}

func NewValkeyClassificationCache(client valkey.Client, ttl time.Duration) *ValkeyClassificationCache {
	return &ValkeyClassificationCache{client: client, ttl: ttl}
}

// NewValkeyClient は valkey に接続して疎通確認まで行う
func NewValkeyClient(address, password string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{address},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	slog.Info("connected to valkey", slog.String("address", address))
	return client, nil
}

func (v *ValkeyClassificationCache) Get(ctx context.Context, key string) ([]Classification, bool, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var results []Classification
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, false, fmt.Errorf("invalid cached classification: %w", err)
	}
	if len(results) == 0 {
		return nil, false, errors.New("empty cached classification")
	}
	return results, true, nil
}

func (v *ValkeyClassificationCache) Set(ctx context.Context, key string, results []Classification) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}
	cmd := v.client.B().Set().Key(key).Value(string(payload)).Ex(v.ttl).Build()
	return v.client.Do(ctx, cmd).Error()
}
