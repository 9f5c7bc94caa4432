package services

import (
	"context"
	"errors"
	"testing"

	"feedback-triage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSentimentFromClassifications(t *testing.T) {
	testCases := []struct {
		name     string
		results  []Classification
		expected models.Sentiment
	}{
		{"confident positive", []Classification{{LabelPositive, 0.95}, {LabelNegative, 0.05}}, models.SentimentPositive},
		{"confident negative", []Classification{{LabelNegative, 0.9}}, models.SentimentNegative},
		{"unsorted input", []Classification{{LabelPositive, 0.2}, {LabelNegative, 0.8}}, models.SentimentNegative},
		{"just below threshold", []Classification{{LabelPositive, 0.59}, {LabelNegative, 0.41}}, models.SentimentNeutral},
		{"exactly at threshold", []Classification{{LabelPositive, 0.6}, {LabelNegative, 0.4}}, models.SentimentPositive},
		{"unexpected label", []Classification{{"NEUTRAL", 0.99}}, models.SentimentNeutral},
		{"lowercase label is unexpected", []Classification{{"positive", 0.99}}, models.SentimentNeutral},
		{"tie picks first", []Classification{{LabelNegative, 0.7}, {LabelPositive, 0.7}}, models.SentimentNegative},
		{"tie picks first reversed", []Classification{{LabelPositive, 0.7}, {LabelNegative, 0.7}}, models.SentimentPositive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sentiment, err := SentimentFromClassifications(tc.results)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sentiment)
		})
	}
}

func TestSentimentFromClassifications_Empty(t *testing.T) {
	_, err := SentimentFromClassifications(nil)
	assert.ErrorIs(t, err, ErrMalformedClassification)

	_, err = SentimentFromClassifications([]Classification{})
	assert.ErrorIs(t, err, ErrMalformedClassification)
}

func TestAnalyzeSentiment(t *testing.T) {
	ctx := context.Background()
	inferrer := new(MockSentimentInferrer)
	inferrer.On("Infer", ctx, "I love it").
		Return([]Classification{{LabelPositive, 0.99}, {LabelNegative, 0.01}}, nil).Once()

	sentiment, err := AnalyzeSentiment(ctx, inferrer, "I love it")

	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, sentiment)
	inferrer.AssertExpectations(t)
}

func TestAnalyzeSentiment_PropagatesInfrastructureErrors(t *testing.T) {
	ctx := context.Background()
	inferrer := new(MockSentimentInferrer)
	inferrer.On("Infer", mock.Anything, mock.Anything).
		Return(nil, ErrClassifierUnavailable).Once()

	sentiment, err := AnalyzeSentiment(ctx, inferrer, "anything")

	assert.Empty(t, sentiment)
	assert.True(t, errors.Is(err, ErrClassifierUnavailable))
}
