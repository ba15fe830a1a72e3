// Package optimistic holds client-side interaction state. Local flips are
// shown immediately and reconciled against the server's answer by item
// identity, never by the slot that happens to display the item.
package optimistic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Kind is the kind of item an interaction targets.
type Kind string

const (
	KindPost Kind = "post"
	KindReel Kind = "reel"
	KindUser Kind = "user"
)

// Key identifies an item independently of where it is displayed.
type Key struct {
	Kind Kind
	ID   uint
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// Interaction is a togglable relation.
type Interaction int

const (
	Like Interaction = iota
	Bookmark
	Follow
)

func (i Interaction) String() string {
	switch i {
	case Like:
		return "like"
	case Bookmark:
		return "bookmark"
	case Follow:
		return "follow"
	default:
		return "unknown"
	}
}

// Snapshot is the viewer's state for one item.
type Snapshot struct {
	Liked      bool
	Bookmarked bool
	Following  bool
	LikeCount  int64
}

// With returns s with interaction flipped. Liking moves LikeCount with it,
// floored at zero.
func (s Snapshot) With(interaction Interaction) Snapshot {
	switch interaction {
	case Like:
		s.Liked = !s.Liked
		if s.Liked {
			s.LikeCount++
		} else if s.LikeCount > 0 {
			s.LikeCount--
		}
	case Bookmark:
		s.Bookmarked = !s.Bookmarked
	case Follow:
		s.Following = !s.Following
	}
	return s
}

// Settle returns s with interaction set to the server's committed state.
// LikeCount follows an authoritative count when out carries one, otherwise
// it moves only if the like flag actually changed.
func (s Snapshot) Settle(interaction Interaction, out Outcome) Snapshot {
	switch interaction {
	case Like:
		if s.Liked != out.Active {
			s = s.With(Like)
		}
		if out.LikeCount != nil {
			s.LikeCount = *out.LikeCount
		}
	case Bookmark:
		s.Bookmarked = out.Active
	case Follow:
		s.Following = out.Active
	}
	return s
}

// Outcome is the server's answer to a toggle.
type Outcome struct {
	// Active is whether the edge exists after the commit.
	Active bool
	// LikeCount is the committed like count, when the server reports it.
	LikeCount *int64
}

// Mutation performs the authoritative toggle.
type Mutation func(ctx context.Context, key Key, interaction Interaction) (Outcome, error)

// Poster delivers results back onto the event loop.
type Poster interface {
	Post(fn func()) bool
}

// Config wires a Reconciler.
type Config struct {
	Loop   Poster
	Mutate Mutation
	// Go runs the mutation off the loop. Defaults to a new goroutine.
	Go     func(fn func())
	Logger *zap.Logger
	// OnChange observes every change to an item's visible state.
	OnChange func(key Key, visible Snapshot)
	// OnRollback is the only place a failed mutation surfaces.
	OnRollback func(key Key, interaction Interaction, err error)
}

type delta struct {
	token       uint64
	interaction Interaction
}

type itemState struct {
	base    Snapshot
	pending []delta
}

func (st *itemState) visible() Snapshot {
	s := st.base
	for _, d := range st.pending {
		s = s.With(d.interaction)
	}
	return s
}

// Reconciler applies interactions optimistically. Its methods must run on
// the loop that Config.Loop posts to.
type Reconciler struct {
	cfg    Config
	logger *zap.Logger
	items  map[Key]*itemState
	next   uint64
}

func New(cfg Config) (*Reconciler, error) {
	if cfg.Loop == nil {
		return nil, errors.New("loop is required")
	}
	if cfg.Mutate == nil {
		return nil, errors.New("mutation is required")
	}
	if cfg.Go == nil {
		cfg.Go = func(fn func()) { go fn() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{cfg: cfg, logger: logger, items: make(map[Key]*itemState)}, nil
}

// Seed replaces an item's base with fresh server data. Pending deltas stay
// on top of it.
func (r *Reconciler) Seed(key Key, snapshot Snapshot) {
	st := r.state(key)
	st.base = snapshot
	r.changed(key, st)
}

// State is the item's visible state: base plus pending deltas.
func (r *Reconciler) State(key Key) Snapshot {
	if st, ok := r.items[key]; ok {
		return st.visible()
	}
	return Snapshot{}
}

// Pending reports how many mutations on key are unresolved.
func (r *Reconciler) Pending(key Key) int {
	if st, ok := r.items[key]; ok {
		return len(st.pending)
	}
	return 0
}

// Apply flips interaction locally and issues the mutation. Rapid repeats on
// the same key are not serialized.
func (r *Reconciler) Apply(ctx context.Context, key Key, interaction Interaction) uint64 {
	r.next++
	token := r.next
	st := r.state(key)
	st.pending = append(st.pending, delta{token: token, interaction: interaction})
	r.changed(key, st)

	r.cfg.Go(func() {
		out, err := r.cfg.Mutate(ctx, key, interaction)
		if !r.cfg.Loop.Post(func() { r.resolve(key, token, out, err) }) {
			r.logger.Debug("loop stopped before mutation resolved",
				zap.Stringer("key", key), zap.Stringer("interaction", interaction))
		}
	})
	return token
}

func (r *Reconciler) resolve(key Key, token uint64, out Outcome, err error) {
	st, ok := r.items[key]
	if !ok {
		return
	}
	idx := -1
	for i, d := range st.pending {
		if d.token == token {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	d := st.pending[idx]
	st.pending = append(st.pending[:idx], st.pending[idx+1:]...)

	if err == nil {
		// The base may already include this commit if it was reseeded
		// while the call was in flight.
		before := st.visible()
		st.base = st.base.Settle(d.interaction, out)
		if st.visible() != before {
			r.changed(key, st)
		}
		return
	}

	r.logger.Warn("optimistic interaction rolled back",
		zap.Stringer("key", key),
		zap.Stringer("interaction", d.interaction),
		zap.Error(err))
	r.changed(key, st)
	if r.cfg.OnRollback != nil {
		r.cfg.OnRollback(key, d.interaction, err)
	}
}

func (r *Reconciler) state(key Key) *itemState {
	st, ok := r.items[key]
	if !ok {
		st = &itemState{}
		r.items[key] = st
	}
	return st
}

func (r *Reconciler) changed(key Key, st *itemState) {
	if r.cfg.OnChange != nil {
		r.cfg.OnChange(key, st.visible())
	}
}
