package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/anonto42/snapreel/backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	opRegisterMedia  = "services.register_media"
	opCreatePost     = "services.create_post"
	opCreateReel     = "services.create_reel"
	opIncrementViews = "services.increment_views"
	opDeleteContent  = "services.delete_content"
)

// ContentConfig extends Config with the media registry.
type ContentConfig struct {
	Config
	Media repositories.MediaRepository
}

// ContentService owns the lifecycle of posts and reels: creation from an
// uploaded asset, view counting and cascading deletion.
type ContentService struct {
	base
	counters *CounterMaintainer
	media    repositories.MediaRepository
}

func NewContentService(cfg ContentConfig) (*ContentService, error) {
	b, err := newBase(opCreatePost, cfg.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Media == nil {
		return nil, newError(opCreatePost, KindInternal, "missing_media", errMissingMedia)
	}
	return &ContentService{
		base:     b,
		counters: NewCounterMaintainer(b.logger),
		media:    cfg.Media,
	}, nil
}

// RegisterUpload records a completed upload so a post or reel can reference it.
func (s *ContentService) RegisterUpload(ctx context.Context, ownerID uint, storageID, url, contentType string) (*models.MediaAsset, error) {
	if ownerID == 0 {
		return nil, newError(opRegisterMedia, KindUnauthenticated, "missing_owner", errMissingPrincipal)
	}
	storageID = strings.TrimSpace(storageID)
	if storageID == "" {
		return nil, newError(opRegisterMedia, KindInvalidArgument, "missing_storage_id", errMissingStorageID)
	}
	if strings.TrimSpace(url) == "" {
		return nil, newError(opRegisterMedia, KindInvalidArgument, "missing_url", errMissingMediaURL)
	}
	if _, err := s.media.GetAsset(ctx, storageID); err == nil {
		return nil, newError(opRegisterMedia, KindConflict, "already_registered", errMediaAlreadyExists)
	} else if !errors.Is(err, repositories.ErrMediaNotFound) {
		return nil, s.storeError(opRegisterMedia, "lookup_failed", err)
	}

	asset := &models.MediaAsset{
		StorageID:   storageID,
		URL:         url,
		ContentType: contentType,
		OwnerID:     ownerID,
		CreatedAt:   s.now(),
	}
	if err := s.media.RegisterAsset(ctx, asset); err != nil {
		return nil, s.storeError(opRegisterMedia, "insert_failed", err, zap.String("storage_id", storageID))
	}
	return asset, nil
}

// CreatePost publishes an image post and bumps the owner's post count.
func (s *ContentService) CreatePost(ctx context.Context, ownerID uint, req models.CreatePostRequest) (*models.Post, error) {
	asset, err := s.resolveAsset(ctx, opCreatePost, ownerID, req.StorageID)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:    ownerID,
		ImageURL:  asset.URL,
		StorageID: asset.StorageID,
		Caption:   strings.TrimSpace(req.Caption),
	}
	err = s.runInTx(ctx, opCreatePost, func(tx *gorm.DB) error {
		post.ID = 0
		post.CreatedAt = s.now()
		if err := repositories.NewPostgresPostRepository(tx).CreatePost(post); err != nil {
			return err
		}
		_, err := s.counters.Adjust(tx, UserEntity(ownerID), FieldPostCount, 1)
		return err
	})
	if err != nil {
		return nil, s.ownerError(opCreatePost, err, ownerID)
	}
	return post, nil
}

// CreateReel publishes a reel and bumps the owner's post count.
func (s *ContentService) CreateReel(ctx context.Context, ownerID uint, req models.CreateReelRequest) (*models.Reel, error) {
	asset, err := s.resolveAsset(ctx, opCreateReel, ownerID, req.StorageID)
	if err != nil {
		return nil, err
	}
	reel := &models.Reel{
		UserID:          ownerID,
		VideoURL:        asset.URL,
		StorageID:       asset.StorageID,
		Caption:         strings.TrimSpace(req.Caption),
		DurationSeconds: req.DurationSeconds,
	}
	err = s.runInTx(ctx, opCreateReel, func(tx *gorm.DB) error {
		reel.ID = 0
		reel.CreatedAt = s.now()
		if err := repositories.NewPostgresReelRepository(tx).CreateReel(reel); err != nil {
			return err
		}
		_, err := s.counters.Adjust(tx, UserEntity(ownerID), FieldPostCount, 1)
		return err
	})
	if err != nil {
		return nil, s.ownerError(opCreateReel, err, ownerID)
	}
	return reel, nil
}

func (s *ContentService) resolveAsset(ctx context.Context, op string, ownerID uint, storageID string) (*models.MediaAsset, error) {
	if ownerID == 0 {
		return nil, newError(op, KindUnauthenticated, "missing_owner", errMissingPrincipal)
	}
	storageID = strings.TrimSpace(storageID)
	if storageID == "" {
		return nil, newError(op, KindInvalidArgument, "missing_storage_id", errMissingStorageID)
	}
	asset, err := s.media.GetAsset(ctx, storageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMediaNotFound) {
			return nil, newError(op, KindNotFound, "media_not_found", errMediaNotFound)
		}
		return nil, s.storeError(op, "media_lookup_failed", err, zap.String("storage_id", storageID))
	}
	if asset.OwnerID != ownerID {
		return nil, newError(op, KindForbidden, "media_not_owned", errMediaNotOwned)
	}
	return asset, nil
}

func (s *ContentService) ownerError(op string, err error, ownerID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(op, KindUnauthenticated, "owner_not_found", errUserNotFound)
	}
	return s.storeError(op, "transaction_failed", err, zap.Uint("owner_id", ownerID))
}

// IncrementViews counts one activation of a reel.
func (s *ContentService) IncrementViews(ctx context.Context, reelID uint) (int64, error) {
	if reelID == 0 {
		return 0, newError(opIncrementViews, KindInvalidArgument, "invalid_target", models.ErrInvalidTarget)
	}
	var views int64
	err := s.runInTx(ctx, opIncrementViews, func(tx *gorm.DB) error {
		var err error
		views, err = s.counters.Adjust(tx, ContentEntity(models.ContentReel, reelID), FieldViewCount, 1)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, newError(opIncrementViews, KindNotFound, "reel_not_found", errContentNotFound)
		}
		return 0, s.storeError(opIncrementViews, "transaction_failed", err, zap.Uint("reel_id", reelID))
	}
	metrics.RecordReelView()
	return views, nil
}

// DeleteContent removes a post or reel together with every like, bookmark,
// comment and notification that references it, then decrements the owner's
// post count. Only the owner may delete. The stored media is released after
// the rows are gone.
func (s *ContentService) DeleteContent(ctx context.Context, callerID uint, target models.TargetRef) error {
	if callerID == 0 {
		return newError(opDeleteContent, KindUnauthenticated, "missing_caller", errMissingPrincipal)
	}
	if !target.IsContent() {
		return newError(opDeleteContent, KindInvalidArgument, "invalid_target", models.ErrInvalidTarget)
	}
	kind := target.ContentKind()

	var (
		storageID string
		removed   map[string]int64
	)
	err := s.runInTx(ctx, opDeleteContent, func(tx *gorm.DB) error {
		content, err := repositories.NewPostgresContentRepository(tx).LockContent(kind, target.ID())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(opDeleteContent, KindNotFound, "content_not_found", errContentNotFound)
			}
			return err
		}
		if content.OwnerID != callerID {
			return newError(opDeleteContent, KindForbidden, "not_owner", errNotOwner)
		}
		storageID = content.StorageID
		removed, err = s.cascade(tx, content)
		return err
	})
	if err != nil {
		metrics.RecordCascade(string(kind), "failed", nil)
		return s.storeError(opDeleteContent, "transaction_failed", err,
			zap.Uint("caller_id", callerID),
			zap.String("target", target.String()))
	}
	metrics.RecordCascade(string(kind), "deleted", removed)
	s.logger.Info("content deleted",
		zap.String("target", target.String()),
		zap.Any("rows_removed", removed))

	if storageID != "" {
		s.releaseMedia(ctx, storageID)
	}
	return nil
}

func (s *ContentService) cascade(tx *gorm.DB, content *repositories.ContentInfo) (map[string]int64, error) {
	removed := make(map[string]int64, 5)
	var err error

	if removed["likes"], err = repositories.NewPostgresLikeRepository(tx).DeleteByContent(content.Kind, content.ID); err != nil {
		return nil, err
	}
	if removed["bookmarks"], err = repositories.NewPostgresBookmarkRepository(tx).DeleteByContent(content.Kind, content.ID); err != nil {
		return nil, err
	}

	comments := repositories.NewPostgresCommentRepository(tx)
	commentIDs, err := comments.CommentIDsByContent(content.Kind, content.ID)
	if err != nil {
		return nil, err
	}

	notifications := repositories.NewPostgresNotificationRepository(tx)
	byContent, err := notifications.DeleteByContent(content.Kind, content.ID)
	if err != nil {
		return nil, err
	}
	byComment, err := notifications.DeleteByCommentIDs(commentIDs)
	if err != nil {
		return nil, err
	}
	removed["notifications"] = byContent + byComment

	if removed["comments"], err = comments.DeleteByContent(content.Kind, content.ID); err != nil {
		return nil, err
	}

	switch content.Kind {
	case models.ContentPost:
		err = repositories.NewPostgresPostRepository(tx).DeletePost(content.ID)
	default:
		err = repositories.NewPostgresReelRepository(tx).DeleteReel(content.ID)
	}
	if err != nil {
		return nil, err
	}
	removed[ContentEntity(content.Kind, content.ID).Table] = 1

	if _, err := s.counters.Adjust(tx, UserEntity(content.OwnerID), FieldPostCount, -1); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *ContentService) releaseMedia(ctx context.Context, storageID string) {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err = s.media.DeleteAsset(ctx, storageID); err == nil {
			return
		}
		if ctx.Err() != nil {
			break
		}
	}
	s.logger.Warn("media asset left behind after content delete",
		zap.String("storage_id", storageID),
		zap.Error(err))
}
