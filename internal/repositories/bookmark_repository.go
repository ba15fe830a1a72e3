package repositories

import (
	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// BookmarkRepository defines the interface for bookmark operations
type BookmarkRepository interface {
	CreateBookmark(bookmark *models.Bookmark) error
	DeleteBookmark(id uint) error
	FindBookmark(userID uint, kind models.ContentKind, contentID uint) (*models.Bookmark, error)
	GetBookmarksByUser(userID uint) ([]models.Bookmark, error)
	BookmarkedContentIDs(userID uint, kind models.ContentKind, contentIDs []uint) (map[uint]bool, error)
	DeleteByContent(kind models.ContentKind, contentID uint) (int64, error)
}

// PostgresBookmarkRepository implements BookmarkRepository
type PostgresBookmarkRepository struct {
	db *gorm.DB
}

func NewPostgresBookmarkRepository(db *gorm.DB) *PostgresBookmarkRepository {
	return &PostgresBookmarkRepository{db: db}
}

func (r *PostgresBookmarkRepository) CreateBookmark(bookmark *models.Bookmark) error {
	return r.db.Create(bookmark).Error
}

func (r *PostgresBookmarkRepository) DeleteBookmark(id uint) error {
	res := r.db.Delete(&models.Bookmark{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostgresBookmarkRepository) FindBookmark(userID uint, kind models.ContentKind, contentID uint) (*models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.Where("user_id = ? AND content_kind = ? AND content_id = ?", userID, kind, contentID).
		Limit(1).Find(&bookmarks).Error
	if err != nil || len(bookmarks) == 0 {
		return nil, err
	}
	return &bookmarks[0], nil
}

func (r *PostgresBookmarkRepository) GetBookmarksByUser(userID uint) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&bookmarks).Error
	return bookmarks, err
}

func (r *PostgresBookmarkRepository) BookmarkedContentIDs(userID uint, kind models.ContentKind, contentIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if len(contentIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.Model(&models.Bookmark{}).
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

func (r *PostgresBookmarkRepository) DeleteByContent(kind models.ContentKind, contentID uint) (int64, error) {
	res := r.db.Where("content_kind = ? AND content_id = ?", kind, contentID).Delete(&models.Bookmark{})
	return res.RowsAffected, res.Error
}
