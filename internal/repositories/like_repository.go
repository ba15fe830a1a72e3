package repositories

import (
	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(like *models.Like) error
	DeleteLike(id uint) error
	FindLike(userID uint, kind models.ContentKind, contentID uint) (*models.Like, error)
	CountByContent(kind models.ContentKind, contentID uint) (int64, error)
	LikedContentIDs(userID uint, kind models.ContentKind, contentIDs []uint) (map[uint]bool, error)
	DeleteByContent(kind models.ContentKind, contentID uint) (int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) CreateLike(like *models.Like) error {
	return r.db.Create(like).Error
}

func (r *PostgresLikeRepository) DeleteLike(id uint) error {
	res := r.db.Delete(&models.Like{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindLike returns the like edge for the pair, or nil when there is none.
func (r *PostgresLikeRepository) FindLike(userID uint, kind models.ContentKind, contentID uint) (*models.Like, error) {
	var likes []models.Like
	err := r.db.Where("user_id = ? AND content_kind = ? AND content_id = ?", userID, kind, contentID).
		Limit(1).Find(&likes).Error
	if err != nil || len(likes) == 0 {
		return nil, err
	}
	return &likes[0], nil
}

func (r *PostgresLikeRepository) CountByContent(kind models.ContentKind, contentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("content_kind = ? AND content_id = ?", kind, contentID).Count(&count).Error
	return count, err
}

// LikedContentIDs reports which of the given items the user has liked.
func (r *PostgresLikeRepository) LikedContentIDs(userID uint, kind models.ContentKind, contentIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if len(contentIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.Model(&models.Like{}).
		Where("user_id = ? AND content_kind = ? AND content_id IN ?", userID, kind, contentIDs).
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *PostgresLikeRepository) DeleteByContent(kind models.ContentKind, contentID uint) (int64, error) {
	res := r.db.Where("content_kind = ? AND content_id = ?", kind, contentID).Delete(&models.Like{})
	return res.RowsAffected, res.Error
}
