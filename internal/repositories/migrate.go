package repositories

import (
	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every relational table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Reel{},
		&models.Follow{},
		&models.Like{},
		&models.Bookmark{},
		&models.Comment{},
		&models.Notification{},
		&models.ToggleReceipt{},
	)
}
