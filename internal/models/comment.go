package models

import "time"

// Comment is immutable once created. It is removed only when its content is deleted.
type Comment struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	UserID      uint        `json:"user_id" gorm:"not null;index"`
	ContentKind ContentKind `json:"content_kind" gorm:"size:8;not null;index:idx_comment_content,priority:1"`
	ContentID   uint        `json:"content_id" gorm:"not null;index:idx_comment_content,priority:2"`
	Content     string      `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AddCommentRequest defines the request body for creating a new comment
type AddCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
	PostID  *uint  `json:"post_id,omitempty"`
	ReelID  *uint  `json:"reel_id,omitempty"`
}
