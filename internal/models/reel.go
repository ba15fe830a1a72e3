package models

import "time"

// Reel is a short video. ViewCount counts activations, not unique viewers.
type Reel struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"index;not null"`
	VideoURL        string    `json:"video_url"`
	StorageID       string    `json:"-" gorm:"size:128"`
	Caption         string    `json:"caption,omitempty"`
	LikeCount       int64     `json:"like_count" gorm:"not null;default:0"`
	CommentCount    int64     `json:"comment_count" gorm:"not null;default:0"`
	ViewCount       int64     `json:"view_count" gorm:"not null;default:0"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

// CreateReelRequest is sent once the video upload has completed.
type CreateReelRequest struct {
	StorageID       string   `json:"storage_id" validate:"required,max=128"`
	Caption         string   `json:"caption,omitempty" validate:"max=2200"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty" validate:"omitempty,gt=0"`
}
