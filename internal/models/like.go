package models

import "time"

// Like represents a like on a post or a reel
type Like struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	UserID      uint        `json:"user_id" gorm:"not null;index;uniqueIndex:idx_like_user_content,priority:1"`
	ContentKind ContentKind `json:"content_kind" gorm:"size:8;not null;uniqueIndex:idx_like_user_content,priority:2;index:idx_like_content,priority:1"`
	ContentID   uint        `json:"content_id" gorm:"not null;uniqueIndex:idx_like_user_content,priority:3;index:idx_like_content,priority:2"`
	CreatedAt   time.Time   `json:"created_at"`
}
