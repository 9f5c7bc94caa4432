package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryClassificationCache はテスト用のインメモリキャッシュ
type memoryClassificationCache struct {
	mu      sync.Mutex
	entries map[string][]Classification
	getErr  error
	setErr  error
}

func newMemoryClassificationCache() *memoryClassificationCache {
	return &memoryClassificationCache{entries: map[string][]Classification{}}
}

func (m *memoryClassificationCache) Get(_ context.Context, key string) ([]Classification, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	results, ok := m.entries[key]
	return results, ok, nil
}

func (m *memoryClassificationCache) Set(_ context.Context, key string, results []Classification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = results
	return nil
}

func TestBreakerInferrer_PassesThrough(t *testing.T) {
	inner := new(MockSentimentInferrer)
	expected := []Classification{{LabelPositive, 0.9}, {LabelNegative, 0.1}}
	inner.On("Infer", mock.Anything, "nice").Return(expected, nil).Once()

	inferrer := NewBreakerInferrer(inner, BreakerSettings{Name: "test-pass", ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	results, err := inferrer.Infer(context.Background(), "nice")

	require.NoError(t, err)
	assert.Equal(t, expected, results)
	assert.Equal(t, gobreaker.StateClosed, inferrer.State())
	inner.AssertExpectations(t)
}

func TestBreakerInferrer_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := new(MockSentimentInferrer)
	inner.On("Infer", mock.Anything, mock.Anything).Return(nil, ErrClassifierUnavailable).Times(2)

	inferrer := NewBreakerInferrer(inner, BreakerSettings{Name: "test-open", ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := inferrer.Infer(ctx, "hello")
		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, inferrer.State())

	// オープン中は下位の分類器を呼ばない
	_, err := inferrer.Infer(ctx, "hello")
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	inner.AssertNumberOfCalls(t, "Infer", 2)
}

func TestBreakerInferrer_MalformedDoesNotTrip(t *testing.T) {
	inner := new(MockSentimentInferrer)
	inner.On("Infer", mock.Anything, mock.Anything).Return(nil, ErrMalformedClassification)

	inferrer := NewBreakerInferrer(inner, BreakerSettings{Name: "test-malformed", ConsecutiveFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := inferrer.Infer(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrMalformedClassification)
	}
	assert.Equal(t, gobreaker.StateClosed, inferrer.State())
	inner.AssertNumberOfCalls(t, "Infer", 3)
}

func TestCachingInferrer_HitAndMiss(t *testing.T) {
	inner := new(MockSentimentInferrer)
	expected := []Classification{{LabelNegative, 0.95}, {LabelPositive, 0.05}}
	inner.On("Infer", mock.Anything, "app crashes").Return(expected, nil).Once()

	cache := newMemoryClassificationCache()
	inferrer := NewCachingInferrer(inner, cache)
	ctx := context.Background()

	first, err := inferrer.Infer(ctx, "app crashes")
	require.NoError(t, err)
	second, err := inferrer.Infer(ctx, "app crashes")
	require.NoError(t, err)

	assert.Equal(t, expected, first)
	assert.Equal(t, expected, second)
	assert.Contains(t, cache.entries, classificationCacheKey("app crashes"))
	inner.AssertExpectations(t)
}

func TestCachingInferrer_CacheFailuresAreIgnored(t *testing.T) {
	inner := new(MockSentimentInferrer)
	expected := []Classification{{LabelPositive, 0.7}, {LabelNegative, 0.3}}
	inner.On("Infer", mock.Anything, "ok").Return(expected, nil).Twice()

	cache := newMemoryClassificationCache()
	cache.getErr = errors.New("connection reset")
	cache.setErr = errors.New("connection reset")
	inferrer := NewCachingInferrer(inner, cache)

	for i := 0; i < 2; i++ {
		results, err := inferrer.Infer(context.Background(), "ok")
		require.NoError(t, err)
		assert.Equal(t, expected, results)
	}
	inner.AssertExpectations(t)
}

func TestCachingInferrer_ErrorsAreNotCached(t *testing.T) {
	inner := new(MockSentimentInferrer)
	inner.On("Infer", mock.Anything, "retry me").Return(nil, ErrClassifierUnavailable).Once()

	cache := newMemoryClassificationCache()
	_, err := NewCachingInferrer(inner, cache).Infer(context.Background(), "retry me")

	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.Empty(t, cache.entries)
}

func TestClassificationCacheKey(t *testing.T) {
	assert.Equal(t, classificationCacheKey("same"), classificationCacheKey("same"))
	assert.NotEqual(t, classificationCacheKey("a"), classificationCacheKey("b"))
	assert.True(t, len(classificationCacheKey("a")) > len(classificationCachePrefix))
}
