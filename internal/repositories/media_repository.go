package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/snapreel/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrMediaNotFound is returned when a storage ID has no registered asset.
var ErrMediaNotFound = errors.New("media asset not found")

// MediaRepository is the registry of uploaded files. Uploads land in object
// storage outside this service; the registry maps their storage IDs to URLs.
type MediaRepository interface {
	RegisterAsset(ctx context.Context, asset *models.MediaAsset) error
	GetAsset(ctx context.Context, storageID string) (*models.MediaAsset, error)
	DeleteAsset(ctx context.Context, storageID string) error
}

// MongoMediaRepository implements MediaRepository for MongoDB
type MongoMediaRepository struct {
	collection *mongo.Collection
}

// NewMongoMediaRepository creates a new MongoMediaRepository
func NewMongoMediaRepository(db *mongo.Database) *MongoMediaRepository {
	return &MongoMediaRepository{collection: db.Collection("media_assets")}
}

// RegisterAsset records an uploaded file. Registering the same storage ID twice fails.
func (r *MongoMediaRepository) RegisterAsset(ctx context.Context, asset *models.MediaAsset) error {
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, asset)
	return err
}

// GetAsset retrieves an asset by storage ID
func (r *MongoMediaRepository) GetAsset(ctx context.Context, storageID string) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	err := r.collection.FindOne(ctx, bson.M{"_id": storageID}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// DeleteAsset removes an asset. Deleting an unknown asset is not an error.
func (r *MongoMediaRepository) DeleteAsset(ctx context.Context, storageID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": storageID})
	return err
}
