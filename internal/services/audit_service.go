package services

import (
	"context"
	"errors"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const opAudit = "services.audit_counters"

// Drift is a counter whose stored value disagreed with its edges.
type Drift struct {
	Table  string `json:"table"`
	ID     uint   `json:"id"`
	Field  Field  `json:"field"`
	Stored int64  `json:"stored"`
	Actual int64  `json:"actual"`
}

// AuditService recomputes counters from the edge tables and repairs drift.
// View counts have no edge table and are left alone.
type AuditService struct {
	base
	counters *CounterMaintainer
}

func NewAuditService(cfg Config) (*AuditService, error) {
	b, err := newBase(opAudit, cfg)
	if err != nil {
		return nil, err
	}
	return &AuditService{base: b, counters: NewCounterMaintainer(b.logger)}, nil
}

type counterSource struct {
	field Field
	count func(tx *gorm.DB) (int64, error)
}

// ReconcileUser repairs a user's follower, following and post counts.
func (s *AuditService) ReconcileUser(ctx context.Context, userID uint) ([]Drift, error) {
	sources := []counterSource{
		{FieldFollowerCount, countWhere(&models.Follow{}, "following_id = ?", userID)},
		{FieldFollowingCount, countWhere(&models.Follow{}, "follower_id = ?", userID)},
		{FieldPostCount, func(tx *gorm.DB) (int64, error) {
			posts, err := countWhere(&models.Post{}, "user_id = ?", userID)(tx)
			if err != nil {
				return 0, err
			}
			reels, err := countWhere(&models.Reel{}, "user_id = ?", userID)(tx)
			return posts + reels, err
		}},
	}
	return s.reconcile(ctx, UserEntity(userID), sources)
}

// ReconcileContent repairs a post's or reel's like and comment counts.
func (s *AuditService) ReconcileContent(ctx context.Context, kind models.ContentKind, id uint) ([]Drift, error) {
	sources := []counterSource{
		{FieldLikeCount, countWhere(&models.Like{}, "content_kind = ? AND content_id = ?", kind, id)},
		{FieldCommentCount, countWhere(&models.Comment{}, "content_kind = ? AND content_id = ?", kind, id)},
	}
	return s.reconcile(ctx, ContentEntity(kind, id), sources)
}

// ReconcileAll walks every user, post and reel.
func (s *AuditService) ReconcileAll(ctx context.Context) ([]Drift, error) {
	var drifts []Drift
	db := s.db.WithContext(ctx)

	var userIDs []uint
	if err := db.Model(&models.User{}).Order("id").Pluck("id", &userIDs).Error; err != nil {
		return nil, s.storeError(opAudit, "list_failed", err)
	}
	for _, id := range userIDs {
		d, err := s.ReconcileUser(ctx, id)
		if err != nil {
			return drifts, err
		}
		drifts = append(drifts, d...)
	}

	for _, kind := range []models.ContentKind{models.ContentPost, models.ContentReel} {
		var ids []uint
		if err := db.Table(ContentEntity(kind, 0).Table).Order("id").Pluck("id", &ids).Error; err != nil {
			return drifts, s.storeError(opAudit, "list_failed", err)
		}
		for _, id := range ids {
			d, err := s.ReconcileContent(ctx, kind, id)
			if err != nil {
				return drifts, err
			}
			drifts = append(drifts, d...)
		}
	}
	return drifts, nil
}

func (s *AuditService) reconcile(ctx context.Context, entity Entity, sources []counterSource) ([]Drift, error) {
	var drifts []Drift
	err := s.runInTx(ctx, opAudit, func(tx *gorm.DB) error {
		drifts = drifts[:0]
		for _, src := range sources {
			stored, err := s.counters.Get(tx, entity, src.field)
			if err != nil {
				return err
			}
			actual, err := src.count(tx)
			if err != nil {
				return err
			}
			if stored == actual {
				continue
			}
			if err := s.counters.Set(tx, entity, src.field, actual); err != nil {
				return err
			}
			drifts = append(drifts, Drift{Table: entity.Table, ID: entity.ID, Field: src.field, Stored: stored, Actual: actual})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, s.storeError(opAudit, "transaction_failed", err,
			zap.String("table", entity.Table),
			zap.Uint("id", entity.ID))
	}
	for _, d := range drifts {
		metrics.RecordCounterDrift(d.Table, string(d.Field))
		s.logger.Warn("counter drift corrected",
			zap.String("table", d.Table),
			zap.Uint("id", d.ID),
			zap.String("field", string(d.Field)),
			zap.Int64("stored", d.Stored),
			zap.Int64("actual", d.Actual))
	}
	return drifts, nil
}

func countWhere(model any, query string, args ...any) func(tx *gorm.DB) (int64, error) {
	return func(tx *gorm.DB) (int64, error) {
		var n int64
		err := tx.Model(model).Where(query, args...).Count(&n).Error
		return n, err
	}
}
