package services

import (
	"context"
	"time"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"gorm.io/gorm"
)

const (
	opFeedReels  = "services.feed_reels"
	opFeedPosts  = "services.feed_posts"
	opBookmarked = "services.bookmarked"
)

// ViewerFlags are the per-viewer booleans attached to every feed item.
type ViewerFlags struct {
	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
	IsFollowing  bool `json:"is_following"`
	IsOwn        bool `json:"is_own"`
}

type ReelSummary struct {
	models.Reel
	Author models.UserCompact `json:"author"`
	ViewerFlags
}

type PostSummary struct {
	models.Post
	Author models.UserCompact `json:"author"`
	ViewerFlags
}

// BookmarkedItem is one entry of the viewer's saved list. Exactly one of
// Post and Reel is set.
type BookmarkedItem struct {
	Kind         models.ContentKind `json:"kind"`
	Post         *PostSummary       `json:"post,omitempty"`
	Reel         *ReelSummary       `json:"reel,omitempty"`
	BookmarkedAt time.Time          `json:"bookmarked_at"`
}

// FeedService assembles read models. It never writes.
type FeedService struct {
	base
}

func NewFeedService(cfg Config) (*FeedService, error) {
	b, err := newBase(opFeedReels, cfg)
	if err != nil {
		return nil, err
	}
	return &FeedService{base: b}, nil
}

// FeedReels returns reels newest first. A limit of zero returns every reel.
func (s *FeedService) FeedReels(ctx context.Context, viewerID uint, skip, limit int) ([]ReelSummary, error) {
	reels, err := repositories.NewPostgresReelRepository(s.db.WithContext(ctx)).GetAllReels(skip, limit)
	if err != nil {
		return nil, s.storeError(opFeedReels, "query_failed", err)
	}
	return s.summarizeReels(ctx, opFeedReels, viewerID, reels)
}

// FeedPosts returns posts newest first. A limit of zero returns every post.
func (s *FeedService) FeedPosts(ctx context.Context, viewerID uint, skip, limit int) ([]PostSummary, error) {
	posts, err := repositories.NewPostgresPostRepository(s.db.WithContext(ctx)).GetAllPosts(skip, limit)
	if err != nil {
		return nil, s.storeError(opFeedPosts, "query_failed", err)
	}
	return s.summarizePosts(ctx, opFeedPosts, viewerID, posts)
}

// UserReels lists one author's reels as seen by viewerID.
func (s *FeedService) UserReels(ctx context.Context, viewerID, ownerID uint, skip, limit int) ([]ReelSummary, error) {
	reels, err := repositories.NewPostgresReelRepository(s.db.WithContext(ctx)).GetReelsByUserID(ownerID, skip, limit)
	if err != nil {
		return nil, s.storeError(opFeedReels, "query_failed", err)
	}
	return s.summarizeReels(ctx, opFeedReels, viewerID, reels)
}

// UserPosts lists one author's posts as seen by viewerID.
func (s *FeedService) UserPosts(ctx context.Context, viewerID, ownerID uint, skip, limit int) ([]PostSummary, error) {
	posts, err := repositories.NewPostgresPostRepository(s.db.WithContext(ctx)).GetPostsByUserID(ownerID, skip, limit)
	if err != nil {
		return nil, s.storeError(opFeedPosts, "query_failed", err)
	}
	return s.summarizePosts(ctx, opFeedPosts, viewerID, posts)
}

// Bookmarked returns the viewer's saved posts and reels, most recent first.
func (s *FeedService) Bookmarked(ctx context.Context, viewerID uint) ([]BookmarkedItem, error) {
	if viewerID == 0 {
		return nil, newError(opBookmarked, KindUnauthenticated, "missing_viewer", errMissingPrincipal)
	}
	db := s.db.WithContext(ctx)
	bookmarks, err := repositories.NewPostgresBookmarkRepository(db).GetBookmarksByUser(viewerID)
	if err != nil {
		return nil, s.storeError(opBookmarked, "query_failed", err)
	}

	var postIDs, reelIDs []uint
	for _, b := range bookmarks {
		if b.ContentKind == models.ContentReel {
			reelIDs = append(reelIDs, b.ContentID)
		} else {
			postIDs = append(postIDs, b.ContentID)
		}
	}

	var posts []models.Post
	var reels []models.Reel
	if len(postIDs) > 0 {
		if err := db.Where("id IN ?", postIDs).Find(&posts).Error; err != nil {
			return nil, s.storeError(opBookmarked, "query_failed", err)
		}
	}
	if len(reelIDs) > 0 {
		if err := db.Where("id IN ?", reelIDs).Find(&reels).Error; err != nil {
			return nil, s.storeError(opBookmarked, "query_failed", err)
		}
	}
	postSummaries, err := s.summarizePosts(ctx, opBookmarked, viewerID, posts)
	if err != nil {
		return nil, err
	}
	reelSummaries, err := s.summarizeReels(ctx, opBookmarked, viewerID, reels)
	if err != nil {
		return nil, err
	}
	postByID := make(map[uint]*PostSummary, len(postSummaries))
	for i := range postSummaries {
		postByID[postSummaries[i].ID] = &postSummaries[i]
	}
	reelByID := make(map[uint]*ReelSummary, len(reelSummaries))
	for i := range reelSummaries {
		reelByID[reelSummaries[i].ID] = &reelSummaries[i]
	}

	items := make([]BookmarkedItem, 0, len(bookmarks))
	for _, b := range bookmarks {
		item := BookmarkedItem{Kind: b.ContentKind, BookmarkedAt: b.CreatedAt}
		if b.ContentKind == models.ContentReel {
			item.Reel = reelByID[b.ContentID]
			if item.Reel == nil {
				continue
			}
		} else {
			item.Post = postByID[b.ContentID]
			if item.Post == nil {
				continue
			}
		}
		items = append(items, item)
	}
	return items, nil
}

type viewerContext struct {
	authors    map[uint]models.User
	liked      map[uint]bool
	bookmarked map[uint]bool
	following  map[uint]bool
}

func (s *FeedService) loadViewerContext(db *gorm.DB, viewerID uint, kind models.ContentKind, contentIDs, ownerIDs []uint) (*viewerContext, error) {
	vc := &viewerContext{}
	var err error
	if vc.authors, err = repositories.NewPostgresUserRepository(db).GetUsersByIDs(ownerIDs); err != nil {
		return nil, err
	}
	if viewerID == 0 {
		return vc, nil
	}
	if vc.liked, err = repositories.NewPostgresLikeRepository(db).LikedContentIDs(viewerID, kind, contentIDs); err != nil {
		return nil, err
	}
	if vc.bookmarked, err = repositories.NewPostgresBookmarkRepository(db).BookmarkedContentIDs(viewerID, kind, contentIDs); err != nil {
		return nil, err
	}
	if vc.following, err = repositories.NewPostgresFollowRepository(db).FollowedAmong(viewerID, ownerIDs); err != nil {
		return nil, err
	}
	return vc, nil
}

func (vc *viewerContext) flags(viewerID, contentID, ownerID uint) ViewerFlags {
	return ViewerFlags{
		IsLiked:      vc.liked[contentID],
		IsBookmarked: vc.bookmarked[contentID],
		IsFollowing:  vc.following[ownerID],
		IsOwn:        viewerID != 0 && viewerID == ownerID,
	}
}

func (s *FeedService) summarizeReels(ctx context.Context, op string, viewerID uint, reels []models.Reel) ([]ReelSummary, error) {
	ids := make([]uint, 0, len(reels))
	owners := make([]uint, 0, len(reels))
	for _, r := range reels {
		ids = append(ids, r.ID)
		owners = append(owners, r.UserID)
	}
	vc, err := s.loadViewerContext(s.db.WithContext(ctx), viewerID, models.ContentReel, ids, owners)
	if err != nil {
		return nil, s.storeError(op, "viewer_context_failed", err)
	}
	out := make([]ReelSummary, 0, len(reels))
	for _, r := range reels {
		author := vc.authors[r.UserID]
		out = append(out, ReelSummary{Reel: r, Author: author.ToCompact(), ViewerFlags: vc.flags(viewerID, r.ID, r.UserID)})
	}
	return out, nil
}

func (s *FeedService) summarizePosts(ctx context.Context, op string, viewerID uint, posts []models.Post) ([]PostSummary, error) {
	ids := make([]uint, 0, len(posts))
	owners := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		owners = append(owners, p.UserID)
	}
	vc, err := s.loadViewerContext(s.db.WithContext(ctx), viewerID, models.ContentPost, ids, owners)
	if err != nil {
		return nil, s.storeError(op, "viewer_context_failed", err)
	}
	out := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		author := vc.authors[p.UserID]
		out = append(out, PostSummary{Post: p, Author: author.ToCompact(), ViewerFlags: vc.flags(viewerID, p.ID, p.UserID)})
	}
	return out, nil
}
