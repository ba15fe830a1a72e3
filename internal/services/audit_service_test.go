package services

import (
	"context"
	"testing"

	"github.com/anonto42/snapreel/backend/internal/models"
	"github.com/anonto42/snapreel/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileAllRepairsDrift(t *testing.T) {
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID)
	toggles := newToggleService(t, db, nil)
	ctx := context.Background()

	_, err := toggles.Toggle(ctx, bob.ID, models.RelationFollow, userTarget(t, alice.ID), ToggleOptions{})
	require.NoError(t, err)
	_, err = toggles.Toggle(ctx, bob.ID, models.RelationLike, postTarget(t, post.ID), ToggleOptions{})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", alice.ID).
		Updates(map[string]any{"follower_count": 7, "post_count": 0}).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("like_count", 3).Error)

	audit, err := NewAuditService(Config{Database: db})
	require.NoError(t, err)
	drifts, err := audit.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Len(t, drifts, 3)

	reloaded := testutil.ReloadUser(t, db, alice.ID)
	assert.EqualValues(t, 1, reloaded.FollowerCount)
	assert.EqualValues(t, 1, reloaded.PostCount)
	assert.EqualValues(t, 1, testutil.ReloadPost(t, db, post.ID).LikeCount)
	assert.EqualValues(t, 1, testutil.ReloadUser(t, db, bob.ID).FollowingCount)

	again, err := audit.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestReconcileMissingEntityIsNoop(t *testing.T) {
	db := testutil.OpenDB(t)
	audit, err := NewAuditService(Config{Database: db})
	require.NoError(t, err)

	drifts, err := audit.ReconcileContent(context.Background(), models.ContentReel, 42)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
