package repositories

import (
	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentsByContent(kind models.ContentKind, contentID uint) ([]models.Comment, error)
	CountByContent(kind models.ContentKind, contentID uint) (int64, error)
	CommentIDsByContent(kind models.ContentKind, contentID uint) ([]uint, error)
	DeleteByContent(kind models.ContentKind, contentID uint) (int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetCommentsByContent retrieves the comments of a post or reel, oldest first
func (r *PostgresCommentRepository) GetCommentsByContent(kind models.ContentKind, contentID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Where("content_kind = ? AND content_id = ?", kind, contentID).
		Order("created_at ASC, id ASC").Find(&comments).Error
	return comments, err
}

func (r *PostgresCommentRepository) CountByContent(kind models.ContentKind, contentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("content_kind = ? AND content_id = ?", kind, contentID).Count(&count).Error
	return count, err
}

func (r *PostgresCommentRepository) CommentIDsByContent(kind models.ContentKind, contentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Comment{}).Where("content_kind = ? AND content_id = ?", kind, contentID).Pluck("id", &ids).Error
	return ids, err
}

func (r *PostgresCommentRepository) DeleteByContent(kind models.ContentKind, contentID uint) (int64, error) {
	res := r.db.Where("content_kind = ? AND content_id = ?", kind, contentID).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}
