package repositories

import (
	"time"

	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// ToggleReceiptRepository stores idempotency receipts for toggles.
type ToggleReceiptRepository interface {
	FindReceipt(subjectID uint, key string) (*models.ToggleReceipt, error)
	CreateReceipt(receipt *models.ToggleReceipt) error
	DeleteReceipt(id uint) error
	DeleteExpired(before time.Time) (int64, error)
}

type postgresToggleReceiptRepository struct {
	db *gorm.DB
}

func NewPostgresToggleReceiptRepository(db *gorm.DB) ToggleReceiptRepository {
	return &postgresToggleReceiptRepository{db: db}
}

func (r *postgresToggleReceiptRepository) FindReceipt(subjectID uint, key string) (*models.ToggleReceipt, error) {
	var receipts []models.ToggleReceipt
	err := r.db.Where("subject_id = ? AND idempotency_key = ?", subjectID, key).Limit(1).Find(&receipts).Error
	if err != nil || len(receipts) == 0 {
		return nil, err
	}
	return &receipts[0], nil
}

func (r *postgresToggleReceiptRepository) CreateReceipt(receipt *models.ToggleReceipt) error {
	return r.db.Create(receipt).Error
}

func (r *postgresToggleReceiptRepository) DeleteReceipt(id uint) error {
	return r.db.Delete(&models.ToggleReceipt{}, id).Error
}

func (r *postgresToggleReceiptRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", before).Delete(&models.ToggleReceipt{})
	return res.RowsAffected, res.Error
}
