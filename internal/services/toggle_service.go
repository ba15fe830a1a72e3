package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/anonto42/snapreel/backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opToggle       = "services.toggle"
	opPurgeReceipt = "services.purge_receipts"
	maxKeyLength   = 64
)

// ToggleOptions tunes a single Toggle call.
type ToggleOptions struct {
	// IdempotencyKey makes a retried request return the first outcome
	// instead of flipping the edge again. Empty disables the check.
	IdempotencyKey string
}

// ToggleResult reports the edge state after the call.
type ToggleResult struct {
	Active   bool `json:"active"`
	Replayed bool `json:"replayed,omitempty"`
}

// ToggleService flips follow, like and bookmark edges. The edge, its
// counters and its notification commit in one transaction.
type ToggleService struct {
	base
	counters      *CounterMaintainer
	fanout        *NotificationFanout
	receiptWindow time.Duration
}

func NewToggleService(cfg Config) (*ToggleService, error) {
	b, err := newBase(opToggle, cfg)
	if err != nil {
		return nil, err
	}
	window := cfg.ReceiptWindow
	if window <= 0 {
		window = defaultReceiptWindow
	}
	return &ToggleService{
		base:          b,
		counters:      NewCounterMaintainer(b.logger),
		fanout:        NewNotificationFanout(b.logger, b.clock),
		receiptWindow: window,
	}, nil
}

// Toggle creates the (subject, relation, target) edge when absent and
// removes it when present.
func (s *ToggleService) Toggle(ctx context.Context, subjectID uint, relation models.RelationType, target models.TargetRef, opts ToggleOptions) (ToggleResult, error) {
	if subjectID == 0 {
		return ToggleResult{}, newError(opToggle, KindUnauthenticated, "missing_subject", errMissingPrincipal)
	}
	if target.IsZero() || !relation.Accepts(target) {
		return ToggleResult{}, newError(opToggle, KindInvalidArgument, "invalid_target", errRelationMismatch)
	}
	if relation == models.RelationFollow && target.ID() == subjectID {
		return ToggleResult{}, newError(opToggle, KindInvalidArgument, "self_follow", errSelfFollow)
	}
	key := strings.TrimSpace(opts.IdempotencyKey)
	if len(key) > maxKeyLength {
		return ToggleResult{}, newError(opToggle, KindInvalidArgument, "key_too_long", errKeyTooLong)
	}

	var result ToggleResult
	err := s.runInTx(ctx, opToggle, func(tx *gorm.DB) error {
		result = ToggleResult{}
		if key != "" {
			receipt, err := s.findReceipt(tx, subjectID, key, relation, target)
			if err != nil {
				return err
			}
			if receipt != nil {
				result = ToggleResult{Active: receipt.Active, Replayed: true}
				return nil
			}
		}

		active, err := s.flip(tx, subjectID, relation, target)
		if err != nil {
			return err
		}
		result.Active = active

		if key != "" {
			receipt := &models.ToggleReceipt{
				SubjectID:  subjectID,
				Key:        key,
				Relation:   relation,
				TargetKind: target.Kind(),
				TargetID:   target.ID(),
				Active:     active,
				CreatedAt:  s.now(),
			}
			if err := repositories.NewPostgresToggleReceiptRepository(tx).CreateReceipt(receipt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ToggleResult{}, s.storeError(opToggle, "transaction_failed", err,
			zap.Uint("subject_id", subjectID),
			zap.String("relation", string(relation)),
			zap.String("target", target.String()))
	}

	if result.Replayed {
		metrics.RecordToggleReplay(string(relation))
	} else {
		metrics.RecordToggle(string(relation), result.Active)
	}
	return result, nil
}

// findReceipt returns the live receipt for key, or nil when there is none.
// Expired receipts are removed so the key can be reused.
func (s *ToggleService) findReceipt(tx *gorm.DB, subjectID uint, key string, relation models.RelationType, target models.TargetRef) (*models.ToggleReceipt, error) {
	repo := repositories.NewPostgresToggleReceiptRepository(tx)
	receipt, err := repo.FindReceipt(subjectID, key)
	if err != nil || receipt == nil {
		return nil, err
	}
	if s.now().Sub(receipt.CreatedAt) > s.receiptWindow {
		return nil, repo.DeleteReceipt(receipt.ID)
	}
	if receipt.Relation != relation || receipt.TargetKind != target.Kind() || receipt.TargetID != target.ID() {
		return nil, newError(opToggle, KindInvalidArgument, "key_reused", errKeyReused)
	}
	return receipt, nil
}

func (s *ToggleService) flip(tx *gorm.DB, subjectID uint, relation models.RelationType, target models.TargetRef) (bool, error) {
	switch relation {
	case models.RelationFollow:
		return s.flipFollow(tx, subjectID, target.ID())
	case models.RelationLike:
		return s.flipLike(tx, subjectID, target)
	default:
		return s.flipBookmark(tx, subjectID, target)
	}
}

func (s *ToggleService) flipFollow(tx *gorm.DB, followerID, followingID uint) (bool, error) {
	users := repositories.NewPostgresUserRepository(tx)
	// Lock both principals in id order so concurrent follows between the
	// same pair cannot deadlock.
	first, second := followerID, followingID
	if first > second {
		first, second = second, first
	}
	for _, id := range []uint{first, second} {
		if _, err := users.LockUser(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if id == followerID {
					return false, newError(opToggle, KindUnauthenticated, "subject_not_found", errUserNotFound)
				}
				return false, newError(opToggle, KindNotFound, "target_not_found", errUserNotFound)
			}
			return false, err
		}
	}

	follows := repositories.NewPostgresFollowRepository(tx)
	existing, err := follows.FindFollow(followerID, followingID)
	if err != nil {
		return false, err
	}

	delta := int64(1)
	if existing != nil {
		if err := follows.DeleteFollow(existing.ID); err != nil {
			return false, err
		}
		delta = -1
	} else if err := follows.CreateFollow(&models.Follow{FollowerID: followerID, FollowingID: followingID}); err != nil {
		return false, err
	}

	if _, err := s.counters.Adjust(tx, UserEntity(followingID), FieldFollowerCount, delta); err != nil {
		return false, err
	}
	if _, err := s.counters.Adjust(tx, UserEntity(followerID), FieldFollowingCount, delta); err != nil {
		return false, err
	}
	if delta < 0 {
		return false, nil
	}
	err = s.fanout.EmitUnlessSelf(tx, NotificationEvent{
		Type:       models.NotificationFollow,
		SenderID:   followerID,
		ReceiverID: followingID,
	})
	return err == nil, err
}

func (s *ToggleService) flipLike(tx *gorm.DB, userID uint, target models.TargetRef) (bool, error) {
	content, err := s.lockContent(tx, target)
	if err != nil {
		return false, err
	}

	likes := repositories.NewPostgresLikeRepository(tx)
	existing, err := likes.FindLike(userID, content.Kind, content.ID)
	if err != nil {
		return false, err
	}
	entity := ContentEntity(content.Kind, content.ID)

	if existing != nil {
		if err := likes.DeleteLike(existing.ID); err != nil {
			return false, err
		}
		_, err := s.counters.Adjust(tx, entity, FieldLikeCount, -1)
		return false, err
	}

	if err := likes.CreateLike(&models.Like{UserID: userID, ContentKind: content.Kind, ContentID: content.ID}); err != nil {
		return false, err
	}
	if _, err := s.counters.Adjust(tx, entity, FieldLikeCount, 1); err != nil {
		return false, err
	}
	err = s.fanout.EmitUnlessSelf(tx, NotificationEvent{
		Type:       models.NotificationLike,
		SenderID:   userID,
		ReceiverID: content.OwnerID,
		Content:    content,
	})
	return err == nil, err
}

// flipBookmark touches no counters and emits nothing; bookmarks are private.
func (s *ToggleService) flipBookmark(tx *gorm.DB, userID uint, target models.TargetRef) (bool, error) {
	content, err := s.lockContent(tx, target)
	if err != nil {
		return false, err
	}

	bookmarks := repositories.NewPostgresBookmarkRepository(tx)
	existing, err := bookmarks.FindBookmark(userID, content.Kind, content.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, bookmarks.DeleteBookmark(existing.ID)
	}
	err = bookmarks.CreateBookmark(&models.Bookmark{UserID: userID, ContentKind: content.Kind, ContentID: content.ID})
	return err == nil, err
}

func (s *ToggleService) lockContent(tx *gorm.DB, target models.TargetRef) (*repositories.ContentInfo, error) {
	content, err := repositories.NewPostgresContentRepository(tx).LockContent(target.ContentKind(), target.ID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(opToggle, KindNotFound, "target_not_found", errContentNotFound)
		}
		return nil, err
	}
	return content, nil
}

// PurgeExpiredReceipts deletes receipts older than the replay window.
func (s *ToggleService) PurgeExpiredReceipts(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.receiptWindow)
	removed, err := repositories.NewPostgresToggleReceiptRepository(s.db.WithContext(ctx)).DeleteExpired(cutoff)
	if err != nil {
		return 0, s.storeError(opPurgeReceipt, "delete_failed", err)
	}
	return removed, nil
}

// RunReceiptJanitor purges expired receipts every interval until ctx ends.
func (s *ToggleService) RunReceiptJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.receiptWindow
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.PurgeExpiredReceipts(ctx)
			if err != nil {
				continue
			}
			if removed > 0 {
				s.logger.Info("expired toggle receipts purged", zap.Int64("removed", removed))
			}
		}
	}
}
