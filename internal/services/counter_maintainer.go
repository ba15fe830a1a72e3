package services

import (
	"database/sql"
	"errors"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const opAdjustCounter = "services.adjust_counter"

// Field is a denormalized counter column.
type Field string

const (
	FieldFollowerCount  Field = "follower_count"
	FieldFollowingCount Field = "following_count"
	FieldPostCount      Field = "post_count"
	FieldLikeCount      Field = "like_count"
	FieldCommentCount   Field = "comment_count"
	FieldViewCount      Field = "view_count"
)

// Entity addresses one row that carries counters.
type Entity struct {
	Table string
	ID    uint
}

func UserEntity(id uint) Entity {
	return Entity{Table: "users", ID: id}
}

func ContentEntity(kind models.ContentKind, id uint) Entity {
	if kind == models.ContentReel {
		return Entity{Table: "reels", ID: id}
	}
	return Entity{Table: "posts", ID: id}
}

var counterColumns = map[string]map[Field]bool{
	"users": {FieldFollowerCount: true, FieldFollowingCount: true, FieldPostCount: true},
	"posts": {FieldLikeCount: true, FieldCommentCount: true},
	"reels": {FieldLikeCount: true, FieldCommentCount: true, FieldViewCount: true},
}

// CounterMaintainer is the only writer of counter columns. Every call runs
// inside the caller's transaction so the counter and the edge that caused it
// commit together.
type CounterMaintainer struct {
	logger *zap.Logger
}

func NewCounterMaintainer(logger *zap.Logger) *CounterMaintainer {
	if logger == nil {
		logger = noOpLogger
	}
	return &CounterMaintainer{logger: logger}
}

// Adjust applies delta (+1 or -1) and returns the stored value. A decrement
// below zero stores zero and is logged as drift.
func (m *CounterMaintainer) Adjust(tx *gorm.DB, entity Entity, field Field, delta int64) (int64, error) {
	if delta != 1 && delta != -1 {
		return 0, newError(opAdjustCounter, KindInternal, "invalid_delta", errInvalidDelta)
	}
	current, err := m.read(tx, entity, field)
	if err != nil {
		return 0, err
	}
	next := current + delta
	if next < 0 {
		next = 0
		m.logger.Warn("counter would go negative, clamped to zero",
			zap.String("table", entity.Table),
			zap.Uint("id", entity.ID),
			zap.String("field", string(field)),
			zap.Int64("current", current))
		metrics.RecordCounterClamp(entity.Table, string(field))
	}
	if err := m.write(tx, entity, field, next); err != nil {
		return 0, err
	}
	return next, nil
}

// Set overwrites a counter with a recomputed value. Used by the audit job.
func (m *CounterMaintainer) Set(tx *gorm.DB, entity Entity, field Field, value int64) error {
	if value < 0 {
		value = 0
	}
	if _, err := m.read(tx, entity, field); err != nil {
		return err
	}
	return m.write(tx, entity, field, value)
}

// Get reads a counter under a row lock.
func (m *CounterMaintainer) Get(tx *gorm.DB, entity Entity, field Field) (int64, error) {
	return m.read(tx, entity, field)
}

func (m *CounterMaintainer) read(tx *gorm.DB, entity Entity, field Field) (int64, error) {
	if !counterColumns[entity.Table][field] {
		return 0, newError(opAdjustCounter, KindInternal, "unknown_counter", errUnknownCounter)
	}
	var current int64
	row := tx.Table(entity.Table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select(string(field)).
		Where("id = ?", entity.ID).
		Row()
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, gorm.ErrRecordNotFound
		}
		return 0, err
	}
	return current, nil
}

func (m *CounterMaintainer) write(tx *gorm.DB, entity Entity, field Field, value int64) error {
	return tx.Table(entity.Table).
		Where("id = ?", entity.ID).
		UpdateColumn(string(field), value).Error
}
