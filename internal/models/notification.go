package models

import "time"

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Notification is written once by the fan-out and never updated. Rows that
// reference content are removed with that content.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:16;not null;index"`
	SenderID    uint             `json:"sender_id" gorm:"not null;index"`
	ReceiverID  uint             `json:"receiver_id" gorm:"not null;index"`
	ContentKind ContentKind      `json:"content_kind,omitempty" gorm:"size:8;index:idx_notification_content,priority:1"`
	ContentID   *uint            `json:"content_id,omitempty" gorm:"index:idx_notification_content,priority:2"`
	CommentID   *uint            `json:"comment_id,omitempty" gorm:"index"`
	Message     string           `json:"message"`
	PreviewURL  string           `json:"preview_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}
