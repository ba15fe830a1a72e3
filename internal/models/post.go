package models

import "time"

// Post is an image post.
type Post struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	ImageURL     string    `json:"image_url"`
	StorageID    string    `json:"-" gorm:"size:128"`
	Caption      string    `json:"caption,omitempty"`
	LikeCount    int64     `json:"like_count" gorm:"not null;default:0"`
	CommentCount int64     `json:"comment_count" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// CreatePostRequest is sent once the image upload has completed.
type CreatePostRequest struct {
	StorageID string `json:"storage_id" validate:"required,max=128"`
	Caption   string `json:"caption,omitempty" validate:"max=2200"`
}
