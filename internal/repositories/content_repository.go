package repositories

import (
	"fmt"

	"github.com/anonto42/snapreel/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentInfo is what the relation services need to know about a post or reel.
type ContentInfo struct {
	Kind      models.ContentKind
	ID        uint
	OwnerID   uint
	MediaURL  string
	StorageID string
}

// ContentRepository resolves posts and reels uniformly by kind.
type ContentRepository interface {
	LockContent(kind models.ContentKind, id uint) (*ContentInfo, error)
}

type postgresContentRepository struct {
	db *gorm.DB
}

func NewPostgresContentRepository(db *gorm.DB) ContentRepository {
	return &postgresContentRepository{db: db}
}

// LockContent loads a post or reel with a write lock and returns gorm.ErrRecordNotFound if it is gone.
func (r *postgresContentRepository) LockContent(kind models.ContentKind, id uint) (*ContentInfo, error) {
	locked := r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	switch kind {
	case models.ContentPost:
		var post models.Post
		if err := locked.Where("id = ?", id).Take(&post).Error; err != nil {
			return nil, err
		}
		return &ContentInfo{Kind: kind, ID: post.ID, OwnerID: post.UserID, MediaURL: post.ImageURL, StorageID: post.StorageID}, nil
	case models.ContentReel:
		var reel models.Reel
		if err := locked.Where("id = ?", id).Take(&reel).Error; err != nil {
			return nil, err
		}
		return &ContentInfo{Kind: kind, ID: reel.ID, OwnerID: reel.UserID, MediaURL: reel.VideoURL, StorageID: reel.StorageID}, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}
