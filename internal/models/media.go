package models

import "time"

// MediaAsset is the registry entry for an uploaded file, stored in MongoDB.
type MediaAsset struct {
	StorageID   string    `json:"storage_id" bson:"_id"`
	URL         string    `json:"url" bson:"url"`
	ContentType string    `json:"content_type" bson:"content_type"`
	OwnerID     uint      `json:"owner_id" bson:"owner_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
