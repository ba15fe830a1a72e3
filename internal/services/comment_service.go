package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opAddComment   = "services.add_comment"
	opListComments = "services.list_comments"
	maxCommentLen  = 500
)

// CommentView is a comment with its author attached.
type CommentView struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// CommentService appends comments and keeps comment_count in step.
type CommentService struct {
	base
	counters *CounterMaintainer
	fanout   *NotificationFanout
}

func NewCommentService(cfg Config) (*CommentService, error) {
	b, err := newBase(opAddComment, cfg)
	if err != nil {
		return nil, err
	}
	return &CommentService{
		base:     b,
		counters: NewCounterMaintainer(b.logger),
		fanout:   NewNotificationFanout(b.logger, b.clock),
	}, nil
}

// AddComment stores the comment, increments the content's comment count and
// notifies the owner unless the owner is the author.
func (s *CommentService) AddComment(ctx context.Context, authorID uint, target models.TargetRef, text string) (*models.Comment, error) {
	if authorID == 0 {
		return nil, newError(opAddComment, KindUnauthenticated, "missing_author", errMissingPrincipal)
	}
	if !target.IsContent() {
		return nil, newError(opAddComment, KindInvalidArgument, "invalid_target", models.ErrInvalidTarget)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(opAddComment, KindInvalidArgument, "empty_comment", errEmptyComment)
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, newError(opAddComment, KindInvalidArgument, "comment_too_long", errCommentTooLong)
	}

	var created *models.Comment
	err := s.runInTx(ctx, opAddComment, func(tx *gorm.DB) error {
		content, err := repositories.NewPostgresContentRepository(tx).LockContent(target.ContentKind(), target.ID())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(opAddComment, KindNotFound, "target_not_found", errContentNotFound)
			}
			return err
		}

		comment := &models.Comment{
			UserID:      authorID,
			ContentKind: content.Kind,
			ContentID:   content.ID,
			Content:     text,
			CreatedAt:   s.now(),
		}
		if err := repositories.NewPostgresCommentRepository(tx).CreateComment(comment); err != nil {
			return err
		}
		if _, err := s.counters.Adjust(tx, ContentEntity(content.Kind, content.ID), FieldCommentCount, 1); err != nil {
			return err
		}

		commentID := comment.ID
		if err := s.fanout.EmitUnlessSelf(tx, NotificationEvent{
			Type:        models.NotificationComment,
			SenderID:    authorID,
			ReceiverID:  content.OwnerID,
			Content:     content,
			CommentID:   &commentID,
			CommentText: text,
		}); err != nil {
			return err
		}
		created = comment
		return nil
	})
	if err != nil {
		return nil, s.storeError(opAddComment, "transaction_failed", err,
			zap.Uint("author_id", authorID),
			zap.String("target", target.String()))
	}
	return created, nil
}

// ListComments returns a content's comments oldest first with authors resolved.
func (s *CommentService) ListComments(ctx context.Context, target models.TargetRef) ([]CommentView, error) {
	if !target.IsContent() {
		return nil, newError(opListComments, KindInvalidArgument, "invalid_target", models.ErrInvalidTarget)
	}
	db := s.db.WithContext(ctx)
	comments, err := repositories.NewPostgresCommentRepository(db).GetCommentsByContent(target.ContentKind(), target.ID())
	if err != nil {
		return nil, s.storeError(opListComments, "query_failed", err)
	}

	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := repositories.NewPostgresUserRepository(db).GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, s.storeError(opListComments, "author_lookup_failed", err)
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		author := authors[c.UserID]
		views = append(views, CommentView{Comment: c, Author: author.ToCompact()})
	}
	return views, nil
}
