package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/samber/mo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feedback-triage/models"
)

// FeedbackStore はフィードバックの永続化に対する問い合わせ・更新の契約
type FeedbackStore interface {
	ListUnanalyzed(ctx context.Context, limit int) ([]models.Feedback, error)
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, error)
	ListHighPriority(ctx context.Context, limit int) ([]models.Feedback, error)
	GetByID(ctx context.Context, id uint) (mo.Option[*models.Feedback], error)
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	Insert(ctx context.Context, req models.CreateFeedbackRequest) (*models.Feedback, error)
	UpdateAnalysis(ctx context.Context, id uint, sentiment models.Sentiment, priorityScore int) error
	CountUnanalyzed(ctx context.Context) (int64, error)
}

// GormFeedbackStore は gorm による FeedbackStore の実装
type GormFeedbackStore struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewGormFeedbackStore(db *gorm.DB, clock clockwork.Clock) *GormFeedbackStore {
	return &GormFeedbackStore{db: db, clock: clock}
}

var timestampDesc = clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}

// ListUnanalyzed は未分析のフィードバックを新しい順に最大 limit 件返す
// 同時刻のものは登録順
func (s *GormFeedbackStore) ListUnanalyzed(ctx context.Context, limit int) ([]models.Feedback, error) {
	items := []models.Feedback{}
	if limit <= 0 {
		return items, nil
	}

	err := s.db.WithContext(ctx).
		Where("sentiment IS NULL").
		Order(timestampDesc).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed feedback: %w", err)
	}
	return items, nil
}

// List は優先度の高い順（未分析は最後）、同点は新しい順に返す
func (s *GormFeedbackStore) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, error) {
	query := s.db.WithContext(ctx).Model(&models.Feedback{})

	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.Sentiment != nil {
		query = query.Where("sentiment = ?", *filter.Sentiment)
	}

	query = query.Order("priority_score DESC NULLS LAST").Order(timestampDesc)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	items := []models.Feedback{}
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

// ListHighPriority はスコアが HighPriorityThreshold 以上のものを返す
func (s *GormFeedbackStore) ListHighPriority(ctx context.Context, limit int) ([]models.Feedback, error) {
	items := []models.Feedback{}
	if limit <= 0 {
		return items, nil
	}

	err := s.db.WithContext(ctx).
		Where("priority_score >= ?", HighPriorityThreshold).
		Order("priority_score DESC").
		Order(timestampDesc).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list high priority feedback: %w", err)
	}
	return items, nil
}

func (s *GormFeedbackStore) GetByID(ctx context.Context, id uint) (mo.Option[*models.Feedback], error) {
	var fb models.Feedback
	err := s.db.WithContext(ctx).First(&fb, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mo.None[*models.Feedback](), nil
	}
	if err != nil {
		return mo.None[*models.Feedback](), fmt.Errorf("failed to get feedback %d: %w", id, err)
	}
	return mo.Some(&fb), nil
}

func (s *GormFeedbackStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("external_id = ?", externalID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check external id %s: %w", externalID, err)
	}
	return count > 0, nil
}

// Insert は ID と投稿時刻をストア側で採番して保存する
func (s *GormFeedbackStore) Insert(ctx context.Context, req models.CreateFeedbackRequest) (*models.Feedback, error) {
	fb := models.Feedback{
		Source:     req.Source,
		Text:       req.Text,
		User:       req.User,
		Timestamp:  s.clock.Now().UTC(),
		ExternalID: req.ExternalID,
	}

	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}
	return &fb, nil
}

// UpdateAnalysis は感情と優先度を1回の UPDATE で同時に書き込む
// 分析済みの行は条件に一致しないため上書きされない
func (s *GormFeedbackStore) UpdateAnalysis(ctx context.Context, id uint, sentiment models.Sentiment, priorityScore int) error {
	result := s.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("id = ? AND sentiment IS NULL", id).
		Updates(map[string]any{
			"sentiment":      sentiment,
			"priority_score": priorityScore,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update analysis for feedback %d: %w", id, result.Error)
	}
	return nil
}

func (s *GormFeedbackStore) CountUnanalyzed(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("sentiment IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unanalyzed feedback: %w", err)
	}
	return count, nil
}
