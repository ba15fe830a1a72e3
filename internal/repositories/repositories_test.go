package repositories_test

import (
	"testing"
	"time"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/anonto42/snapreel/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLikeEdgeLookups(t *testing.T) {
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	p1 := testutil.CreatePost(t, db, alice.ID)
	p2 := testutil.CreatePost(t, db, alice.ID)
	repo := repositories.NewPostgresLikeRepository(db)

	found, err := repo.FindLike(alice.ID, models.ContentPost, p1.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, repo.CreateLike(&models.Like{UserID: alice.ID, ContentKind: models.ContentPost, ContentID: p1.ID}))
	require.Error(t, repo.CreateLike(&models.Like{UserID: alice.ID, ContentKind: models.ContentPost, ContentID: p1.ID}), "unique pair")
	require.NoError(t, repo.CreateLike(&models.Like{UserID: alice.ID, ContentKind: models.ContentReel, ContentID: p1.ID}), "same id, other kind")

	liked, err := repo.LikedContentIDs(alice.ID, models.ContentPost, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{p1.ID: true}, liked)

	found, err = repo.FindLike(alice.ID, models.ContentPost, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NoError(t, repo.DeleteLike(found.ID))
	assert.ErrorIs(t, repo.DeleteLike(found.ID), gorm.ErrRecordNotFound)

	n, err := repo.CountByContent(models.ContentReel, p1.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestFollowQueries(t *testing.T) {
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	follows := repositories.NewPostgresFollowRepository(db)
	users := repositories.NewPostgresUserRepository(db)

	require.NoError(t, follows.CreateFollow(&models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}))

	ok, err := follows.IsFollowing(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = follows.IsFollowing(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	among, err := follows.FollowedAmong(alice.ID, []uint{bob.ID, carol.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{bob.ID: true}, among)

	followers, err := follows.GetFollowers(bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].ID)

	suggested, err := users.GetSuggestedUsers(alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, carol.ID, suggested[0].ID)

	found, err := users.SearchUsers("CAR", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "carol", found[0].Username)

	taken, err := users.UsernameTaken("bob")
	require.NoError(t, err)
	assert.True(t, taken)

	byID, err := users.GetUsersByIDs([]uint{alice.ID, carol.ID, 999})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}

func TestNotificationGrouping(t *testing.T) {
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	repo := repositories.NewPostgresNotificationRepository(db)

	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{
		now.Add(-time.Hour),
		now.Add(-20 * time.Hour),
		now.AddDate(0, 0, -3),
		now.AddDate(0, 0, -30),
	} {
		require.NoError(t, repo.CreateNotification(&models.Notification{
			Type: models.NotificationFollow, SenderID: bob.ID, ReceiverID: alice.ID, CreatedAt: at,
		}))
	}

	today, yesterday, week, older, err := repo.GetGrouped(alice.ID, now)
	require.NoError(t, err)
	assert.Len(t, today, 1)
	assert.Len(t, yesterday, 1)
	assert.Len(t, week, 1)
	assert.Len(t, older, 1)

	page, total, err := repo.GetByReceiverID(alice.ID, 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 1)
	assert.True(t, page[0].CreatedAt.Equal(now.AddDate(0, 0, -30)), "oldest on the last page")
}

func TestPaginationAndReceipts(t *testing.T) {
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	for i := 0; i < 5; i++ {
		testutil.CreateReel(t, db, alice.ID)
	}
	reels := repositories.NewPostgresReelRepository(db)

	all, err := reels.GetAllReels(0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Greater(t, all[0].ID, all[4].ID, "newest first")

	page, err := reels.GetReelsByUserID(alice.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	assert.ErrorIs(t, reels.DeleteReel(9999), gorm.ErrRecordNotFound)

	receipts := repositories.NewPostgresToggleReceiptRepository(db)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, receipts.CreateReceipt(&models.ToggleReceipt{
		SubjectID: alice.ID, Key: "old", Relation: models.RelationLike,
		TargetKind: models.TargetReel, TargetID: all[0].ID, Active: true, CreatedAt: base,
	}))
	require.NoError(t, receipts.CreateReceipt(&models.ToggleReceipt{
		SubjectID: alice.ID, Key: "new", Relation: models.RelationLike,
		TargetKind: models.TargetReel, TargetID: all[0].ID, Active: false, CreatedAt: base.Add(time.Hour),
	}))

	purged, err := receipts.DeleteExpired(base.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	got, err := receipts.FindReceipt(alice.ID, "new")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)
	got, err = receipts.FindReceipt(alice.ID, "old")
	require.NoError(t, err)
	assert.Nil(t, got)
}
