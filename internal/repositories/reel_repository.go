package repositories

import (
	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// ReelRepository defines the interface for reel data operations
type ReelRepository interface {
	CreateReel(reel *models.Reel) error
	GetReelByID(id uint) (*models.Reel, error)
	GetReelsByUserID(userID uint, skip, limit int) ([]models.Reel, error)
	GetAllReels(skip, limit int) ([]models.Reel, error)
	DeleteReel(id uint) error
}

// PostgresReelRepository implements ReelRepository for PostgreSQL
type PostgresReelRepository struct {
	db *gorm.DB
}

func NewPostgresReelRepository(db *gorm.DB) *PostgresReelRepository {
	return &PostgresReelRepository{db: db}
}

func (r *PostgresReelRepository) CreateReel(reel *models.Reel) error {
	reel.LikeCount, reel.CommentCount, reel.ViewCount = 0, 0, 0
	return r.db.Create(reel).Error
}

func (r *PostgresReelRepository) GetReelByID(id uint) (*models.Reel, error) {
	var reel models.Reel
	if err := r.db.First(&reel, id).Error; err != nil {
		return nil, err
	}
	return &reel, nil
}

func (r *PostgresReelRepository) GetReelsByUserID(userID uint, skip, limit int) ([]models.Reel, error) {
	var reels []models.Reel
	err := paginate(r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC"), skip, limit).
		Find(&reels).Error
	return reels, err
}

// GetAllReels returns reels newest first
func (r *PostgresReelRepository) GetAllReels(skip, limit int) ([]models.Reel, error) {
	var reels []models.Reel
	err := paginate(r.db.Order("created_at DESC, id DESC"), skip, limit).Find(&reels).Error
	return reels, err
}

func (r *PostgresReelRepository) DeleteReel(id uint) error {
	res := r.db.Delete(&models.Reel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
