package services

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/anonto42/snapreel/backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opEmitNotification = "services.emit_notification"
	commentPreviewLen  = 60
)

// NotificationEvent describes a relation change worth telling someone about.
type NotificationEvent struct {
	Type       models.NotificationType
	SenderID   uint
	ReceiverID uint
	Content    *repositories.ContentInfo
	CommentID  *uint
	// CommentText is the body of the new comment, previewed in the message.
	CommentText string
}

// NotificationFanout writes notifications in the transaction of the edge
// that produced them. It never emits to the sender.
type NotificationFanout struct {
	logger *zap.Logger
	clock  func() time.Time
}

func NewNotificationFanout(logger *zap.Logger, clock func() time.Time) *NotificationFanout {
	if logger == nil {
		logger = noOpLogger
	}
	if clock == nil {
		clock = time.Now
	}
	return &NotificationFanout{logger: logger, clock: clock}
}

// Emit persists ev. Callers are expected to skip self-directed events; Emit
// refuses them anyway and records the suppression.
func (f *NotificationFanout) Emit(tx *gorm.DB, ev NotificationEvent) (*models.Notification, error) {
	if ev.ReceiverID == ev.SenderID {
		metrics.RecordSuppressedNotification(string(ev.Type))
		return nil, newError(opEmitNotification, KindInvalidArgument, "self_notification", errSelfNotification)
	}

	n := &models.Notification{
		Type:       ev.Type,
		SenderID:   ev.SenderID,
		ReceiverID: ev.ReceiverID,
		CommentID:  ev.CommentID,
		Message:    composeMessage(ev),
		CreatedAt:  f.clock().UTC(),
	}
	if ev.Content != nil {
		contentID := ev.Content.ID
		n.ContentKind = ev.Content.Kind
		n.ContentID = &contentID
		n.PreviewURL = ev.Content.MediaURL
	}

	if err := repositories.NewPostgresNotificationRepository(tx).CreateNotification(n); err != nil {
		return nil, err
	}
	f.logger.Debug("notification emitted",
		zap.String("type", string(n.Type)),
		zap.Uint("sender_id", n.SenderID),
		zap.Uint("receiver_id", n.ReceiverID))
	metrics.RecordNotification(string(n.Type))
	return n, nil
}

// EmitUnlessSelf emits ev when the receiver is someone other than the sender.
func (f *NotificationFanout) EmitUnlessSelf(tx *gorm.DB, ev NotificationEvent) error {
	if ev.ReceiverID == ev.SenderID {
		metrics.RecordSuppressedNotification(string(ev.Type))
		return nil
	}
	_, err := f.Emit(tx, ev)
	return err
}

func composeMessage(ev NotificationEvent) string {
	kind := "post"
	if ev.Content != nil && ev.Content.Kind == models.ContentReel {
		kind = "reel"
	}
	switch ev.Type {
	case models.NotificationFollow:
		return "started following you"
	case models.NotificationLike:
		return fmt.Sprintf("liked your %s", kind)
	case models.NotificationComment:
		return fmt.Sprintf("commented on your %s: %s", kind, truncate(ev.CommentText, commentPreviewLen))
	default:
		return string(ev.Type)
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
