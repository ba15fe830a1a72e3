package repositories

import (
	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPostByID(id uint) (*models.Post, error)
	GetPostsByUserID(userID uint, skip, limit int) ([]models.Post, error)
	GetAllPosts(skip, limit int) ([]models.Post, error)
	DeletePost(id uint) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post with zeroed counters
func (r *PostgresPostRepository) CreatePost(post *models.Post) error {
	post.LikeCount, post.CommentCount = 0, 0
	return r.db.Create(post).Error
}

// GetPostByID retrieves a post by ID
func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostsByUserID retrieves posts by a specific user, newest first
func (r *PostgresPostRepository) GetPostsByUserID(userID uint, skip, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := paginate(r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC"), skip, limit).
		Find(&posts).Error
	return posts, err
}

// GetAllPosts retrieves all posts, newest first
func (r *PostgresPostRepository) GetAllPosts(skip, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := paginate(r.db.Order("created_at DESC, id DESC"), skip, limit).Find(&posts).Error
	return posts, err
}

// DeletePost deletes a post row. Relations are removed by the caller first.
func (r *PostgresPostRepository) DeletePost(id uint) error {
	res := r.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// paginate applies skip/limit; a non-positive limit returns everything.
func paginate(q *gorm.DB, skip, limit int) *gorm.DB {
	if skip > 0 {
		q = q.Offset(skip)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
