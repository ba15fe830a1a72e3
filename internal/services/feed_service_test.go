package services

import (
	"context"
	"testing"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedReelsCarriesViewerFlags(t *testing.T) {
	db := testutil.OpenDB(t)
	viewer := testutil.CreateUser(t, db, "viewer")
	author := testutil.CreateUser(t, db, "author")
	liked := testutil.CreateReel(t, db, author.ID)
	own := testutil.CreateReel(t, db, viewer.ID)
	toggles := newToggleService(t, db, nil)
	ctx := context.Background()

	_, err := toggles.Toggle(ctx, viewer.ID, models.RelationLike, reelTarget(t, liked.ID), ToggleOptions{})
	require.NoError(t, err)
	_, err = toggles.Toggle(ctx, viewer.ID, models.RelationBookmark, reelTarget(t, liked.ID), ToggleOptions{})
	require.NoError(t, err)
	_, err = toggles.Toggle(ctx, viewer.ID, models.RelationFollow, userTarget(t, author.ID), ToggleOptions{})
	require.NoError(t, err)

	feed, err := NewFeedService(Config{Database: db})
	require.NoError(t, err)
	reels, err := feed.FeedReels(ctx, viewer.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, reels, 2)

	byID := map[uint]ReelSummary{}
	for _, r := range reels {
		byID[r.ID] = r
	}
	got := byID[liked.ID]
	assert.True(t, got.IsLiked)
	assert.True(t, got.IsBookmarked)
	assert.True(t, got.IsFollowing)
	assert.False(t, got.IsOwn)
	assert.Equal(t, "author", got.Author.Username)
	assert.EqualValues(t, 1, got.LikeCount)

	mine := byID[own.ID]
	assert.True(t, mine.IsOwn)
	assert.False(t, mine.IsLiked)

	limited, err := feed.FeedReels(ctx, viewer.ID, 0, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestBookmarkedListsBothKinds(t *testing.T) {
	db := testutil.OpenDB(t)
	viewer := testutil.CreateUser(t, db, "viewer")
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID)
	reel := testutil.CreateReel(t, db, author.ID)
	testutil.CreatePost(t, db, author.ID)
	toggles := newToggleService(t, db, nil)
	ctx := context.Background()

	_, err := toggles.Toggle(ctx, viewer.ID, models.RelationBookmark, postTarget(t, post.ID), ToggleOptions{})
	require.NoError(t, err)
	_, err = toggles.Toggle(ctx, viewer.ID, models.RelationBookmark, reelTarget(t, reel.ID), ToggleOptions{})
	require.NoError(t, err)

	feed, err := NewFeedService(Config{Database: db})
	require.NoError(t, err)
	items, err := feed.Bookmarked(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	kinds := map[models.ContentKind]bool{}
	for _, item := range items {
		kinds[item.Kind] = true
		if item.Kind == models.ContentPost {
			require.NotNil(t, item.Post)
			assert.True(t, item.Post.IsBookmarked)
		} else {
			require.NotNil(t, item.Reel)
			assert.True(t, item.Reel.IsBookmarked)
		}
	}
	assert.Len(t, kinds, 2)

	_, err = feed.Bookmarked(ctx, 0)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestUserPostsScopesToOwner(t *testing.T) {
	db := testutil.OpenDB(t)
	a := testutil.CreateUser(t, db, "alpha")
	b := testutil.CreateUser(t, db, "beta")
	testutil.CreatePost(t, db, a.ID)
	testutil.CreatePost(t, db, a.ID)
	testutil.CreatePost(t, db, b.ID)

	feed, err := NewFeedService(Config{Database: db})
	require.NoError(t, err)
	posts, err := feed.UserPosts(context.Background(), b.ID, a.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, a.ID, p.UserID)
		assert.False(t, p.IsOwn)
	}
}
