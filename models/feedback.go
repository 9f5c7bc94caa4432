package models

import (
	"fmt"
	"strings"
	"time"
)

// Source はフィードバックの流入元チャネル
type Source string

const (
	SourceDiscord Source = "discord"
	SourceGitHub  Source = "github"
	SourceTwitter Source = "twitter"
	SourceSupport Source = "support"
)

// Sources は受け付けるチャネルの一覧（エラーメッセージの順序もこれに従う）
var Sources = []Source{SourceDiscord, SourceGitHub, SourceTwitter, SourceSupport}

func (s Source) IsValid() bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

// Sentiment は分類済みの感情極性
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

func (s Sentiment) IsValid() bool {
	for _, v := range Sentiments {
		if s == v {
			return true
		}
	}
	return false
}

// Feedback は1件のフィードバック
// Sentiment と PriorityScore は分析時に一度だけ同時に書き込まれる
type Feedback struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Source        Source     `gorm:"not null;index" json:"source"`
	Text          string     `gorm:"type:text;not null" json:"text"`
	User          *string    `json:"user"`
	Timestamp     time.Time  `gorm:"not null;index" json:"timestamp"`
	Sentiment     *Sentiment `gorm:"index" json:"sentiment"`
	PriorityScore *int       `gorm:"index" json:"priority_score"`
	ExternalID    *string    `gorm:"uniqueIndex" json:"-"` // 取り込み元での識別子（重複取り込み防止）
}

func (Feedback) TableName() string { return "feedback" }

// IsAnalyzed は感情分析済みかどうかを返す
func (f *Feedback) IsAnalyzed() bool {
	return f.Sentiment != nil
}

// CreateFeedbackRequest は新規フィードバックの入力
type CreateFeedbackRequest struct {
	Source     Source  `json:"source"`
	Text       string  `json:"text"`
	User       *string `json:"user,omitempty"`
	ExternalID *string `json:"-"`
}

// ValidationError は入力不備を表す（HTTP 400 相当）
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func sourceList() string {
	names := make([]string, 0, len(Sources))
	for _, s := range Sources {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func sentimentList() string {
	names := make([]string, 0, len(Sentiments))
	for _, s := range Sentiments {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// Validate は source と text の必須チェックと source の値チェックを行う
func (r *CreateFeedbackRequest) Validate() error {
	if r.Source == "" || strings.TrimSpace(r.Text) == "" {
		return NewValidationError("source and text are required")
	}
	if !r.Source.IsValid() {
		return NewValidationError("source must be one of: %s", sourceList())
	}
	// 空文字のユーザーは未指定として扱う
	if r.User != nil && *r.User == "" {
		r.User = nil
	}
	return nil
}

// FeedbackFilter は一覧取得時の絞り込み条件
type FeedbackFilter struct {
	Source    *Source
	Sentiment *Sentiment
	Limit     int
	Offset    int
}

// ParseFeedbackFilter はクエリ文字列の値から絞り込み条件を作る
// 空文字は未指定として扱う
func ParseFeedbackFilter(source, sentiment string, limit, offset int) (FeedbackFilter, error) {
	filter := FeedbackFilter{Limit: limit, Offset: offset}

	if source != "" {
		s := Source(source)
		if !s.IsValid() {
			return filter, NewValidationError("source must be one of: %s", sourceList())
		}
		filter.Source = &s
	}

	if sentiment != "" {
		s := Sentiment(sentiment)
		if !s.IsValid() {
			return filter, NewValidationError("sentiment must be one of: %s", sentimentList())
		}
		filter.Sentiment = &s
	}

	return filter, nil
}
