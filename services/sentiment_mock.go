package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"feedback-triage/models"
)

// MockSentimentInferrer is a mock implementation of the SentimentInferrer interface
type MockSentimentInferrer struct {
	mock.Mock
}

func (m *MockSentimentInferrer) Infer(ctx context.Context, text string) ([]Classification, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Classification), args.Error(1)
}

// MockHighPriorityNotifier is a mock implementation of the HighPriorityNotifier interface
type MockHighPriorityNotifier struct {
	mock.Mock
}

func (m *MockHighPriorityNotifier) NotifyHighPriority(ctx context.Context, feedback models.Feedback, result models.AnalysisResult) error {
	args := m.Called(ctx, feedback, result)
	return args.Error(0)
}
