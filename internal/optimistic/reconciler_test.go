package optimistic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/snapreel/backend/internal/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend answers each mutation with the error queued for it and
// otherwise flips its own copy of the edge, like the server does.
type scriptedBackend struct {
	calls []Interaction
	next  error
	edges map[string]bool
	count *int64
}

func (b *scriptedBackend) mutate(_ context.Context, key Key, interaction Interaction) (Outcome, error) {
	b.calls = append(b.calls, interaction)
	if b.next != nil {
		return Outcome{}, b.next
	}
	edge := key.String() + "/" + interaction.String()
	b.edges[edge] = !b.edges[edge]
	return Outcome{Active: b.edges[edge], LikeCount: b.count}, nil
}

type fixture struct {
	r         *Reconciler
	loop      *eventloop.Manual
	backend   *scriptedBackend
	deferred  []func()
	rollbacks []Interaction
	changes   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		loop:    eventloop.NewManual(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		backend: &scriptedBackend{edges: make(map[string]bool)},
	}
	r, err := New(Config{
		Loop:   f.loop,
		Mutate: f.backend.mutate,
		// Mutations run when the test resolves them, not on goroutines.
		Go: func(fn func()) { f.deferred = append(f.deferred, fn) },
		OnChange: func(Key, Snapshot) {
			f.changes++
		},
		OnRollback: func(_ Key, interaction Interaction, _ error) {
			f.rollbacks = append(f.rollbacks, interaction)
		},
	})
	require.NoError(t, err)
	f.r = r
	return f
}

// resolve runs the i-th issued mutation with the given outcome and flushes
// the loop.
func (f *fixture) resolve(i int, err error) {
	f.backend.next = err
	f.deferred[i]()
	f.loop.Flush()
}

var reel = Key{Kind: KindReel, ID: 7}

func TestNewRequiresLoopAndMutation(t *testing.T) {
	_, err := New(Config{Mutate: func(context.Context, Key, Interaction) (Outcome, error) { return Outcome{}, nil }})
	require.Error(t, err)
	_, err = New(Config{Loop: eventloop.NewManual(time.Time{})})
	require.Error(t, err)
}

func TestLikeRollbackRestoresCount(t *testing.T) {
	f := newFixture(t)
	f.r.Seed(reel, Snapshot{Liked: false, LikeCount: 5})

	f.r.Apply(context.Background(), reel, Like)
	assert.Equal(t, Snapshot{Liked: true, LikeCount: 6}, f.r.State(reel))

	f.resolve(0, errors.New("network down"))
	assert.Equal(t, Snapshot{Liked: false, LikeCount: 5}, f.r.State(reel))
	assert.Equal(t, []Interaction{Like}, f.rollbacks)
	assert.Zero(t, f.r.Pending(reel))
	assert.Equal(t, 3, f.changes, "seed, flip and rollback")
}

func TestSuccessKeepsFlip(t *testing.T) {
	f := newFixture(t)
	f.r.Seed(reel, Snapshot{LikeCount: 5})

	f.r.Apply(context.Background(), reel, Like)
	f.r.Apply(context.Background(), reel, Bookmark)
	f.resolve(0, nil)
	f.resolve(1, nil)

	assert.Equal(t, Snapshot{Liked: true, Bookmarked: true, LikeCount: 6}, f.r.State(reel))
	assert.Empty(t, f.rollbacks)
	assert.Zero(t, f.r.Pending(reel))
}

func TestReseedWhileInFlightFollowsServer(t *testing.T) {
	f := newFixture(t)
	f.r.Seed(reel, Snapshot{LikeCount: 5})

	f.r.Apply(context.Background(), reel, Like)
	// A feed refresh already carries the committed like.
	f.r.Seed(reel, Snapshot{Liked: true, LikeCount: 6})
	f.resolve(0, nil)

	assert.Equal(t, Snapshot{Liked: true, LikeCount: 6}, f.r.State(reel))
	assert.Zero(t, f.r.Pending(reel))
	assert.Empty(t, f.rollbacks)
}

func TestSettleUsesReportedCount(t *testing.T) {
	f := newFixture(t)
	f.r.Seed(reel, Snapshot{LikeCount: 5})
	committed := int64(11)
	f.backend.count = &committed

	f.r.Apply(context.Background(), reel, Like)
	changes := f.changes
	f.resolve(0, nil)

	assert.Equal(t, Snapshot{Liked: true, LikeCount: 11}, f.r.State(reel))
	assert.Equal(t, changes+1, f.changes)
}

func TestSettle(t *testing.T) {
	liked := Snapshot{Liked: true, LikeCount: 3}
	assert.Equal(t, liked, liked.Settle(Like, Outcome{Active: true}))
	assert.Equal(t, Snapshot{LikeCount: 2}, liked.Settle(Like, Outcome{Active: false}))
	assert.Equal(t, Snapshot{Liked: true, LikeCount: 3, Following: true}, liked.Settle(Follow, Outcome{Active: true}))
	assert.Equal(t, liked, Snapshot{Liked: true, LikeCount: 3, Bookmarked: true}.Settle(Bookmark, Outcome{}))
}

func TestOutOfOrderResults(t *testing.T) {
	f := newFixture(t)
	f.r.Seed(reel, Snapshot{LikeCount: 2})

	f.r.Apply(context.Background(), reel, Like)
	f.r.Apply(context.Background(), reel, Like)
	assert.Equal(t, Snapshot{LikeCount: 2}, f.r.State(reel))
	assert.Equal(t, 2, f.r.Pending(reel))

	// The unlike fails after the like succeeded.
	f.resolve(1, errors.New("boom"))
	assert.Equal(t, Snapshot{Liked: true, LikeCount: 3}, f.r.State(reel))
	f.resolve(0, nil)
	assert.Equal(t, Snapshot{Liked: true, LikeCount: 3}, f.r.State(reel))
}

func TestResultsTargetIdentityNotSlot(t *testing.T) {
	f := newFixture(t)
	other := Key{Kind: KindReel, ID: 8}
	f.r.Seed(reel, Snapshot{LikeCount: 1})
	f.r.Seed(other, Snapshot{Liked: true, LikeCount: 9})

	f.r.Apply(context.Background(), reel, Like)
	// The slot that showed reel 7 is recycled for reel 8 before the
	// response lands.
	f.r.Seed(other, Snapshot{Liked: true, LikeCount: 10})
	f.resolve(0, errors.New("timeout"))

	assert.Equal(t, Snapshot{LikeCount: 1}, f.r.State(reel))
	assert.Equal(t, Snapshot{Liked: true, LikeCount: 10}, f.r.State(other))
}

func TestFollowAndUnknownKey(t *testing.T) {
	f := newFixture(t)
	user := Key{Kind: KindUser, ID: 3}
	assert.Equal(t, Snapshot{}, f.r.State(user))

	f.r.Apply(context.Background(), user, Follow)
	assert.True(t, f.r.State(user).Following)
	f.resolve(0, errors.New("forbidden"))
	assert.False(t, f.r.State(user).Following)
	assert.Equal(t, "user:3", user.String())
}

func TestUnlikeNeverGoesNegative(t *testing.T) {
	s := Snapshot{Liked: true, LikeCount: 0}.With(Like)
	assert.Equal(t, Snapshot{}, s)
}
