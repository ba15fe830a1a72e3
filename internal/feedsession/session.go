// Package feedsession is the client core of the reel feed. It wires the
// viewport tracker, playback scheduler, tap disambiguator and optimistic
// state to the API on a single event loop.
package feedsession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/snapreel/backend/internal/eventloop"
	"github.com/anonto42/snapreel/backend/internal/gesture"
	"github.com/anonto42/snapreel/backend/internal/optimistic"
	"github.com/anonto42/snapreel/backend/internal/player"
	"github.com/anonto42/snapreel/backend/pkg/apiclient"
	"go.uber.org/zap"
)

// Backend is the part of the API the feed mutates. *apiclient.Client
// implements it.
type Backend interface {
	ToggleLike(ctx context.Context, target apiclient.Target) (bool, error)
	ToggleBookmark(ctx context.Context, target apiclient.Target) (bool, error)
	ToggleFollow(ctx context.Context, userID uint) (bool, error)
	IncrementViews(ctx context.Context, reelID uint) error
}

var _ Backend = (*apiclient.Client)(nil)

// Config wires a Session.
type Config struct {
	Loop    eventloop.Scheduler
	Backend Backend
	Players player.PlayerFactory
	Logger  *zap.Logger

	VisibilityThreshold float64
	TapWindow           time.Duration

	// Go runs network calls off the loop. Defaults to a new goroutine.
	Go func(fn func())

	OnStateChange func(slot int, state player.SlotState)
	OnRollback    func(key optimistic.Key, interaction optimistic.Interaction, err error)
}

// SlotView is what a slot renders.
type SlotView struct {
	Reel       apiclient.Reel
	Liked      bool
	Bookmarked bool
	Following  bool
	LikeCount  int64
	State      player.SlotState
	Paused     bool
}

// Session must only be used from the goroutine running its loop.
type Session struct {
	// ctx bounds every network call the session starts.
	ctx     context.Context
	cfg     Config
	logger  *zap.Logger
	tracker *player.Tracker
	sched   *player.Scheduler
	taps    *gesture.Disambiguator
	state   *optimistic.Reconciler
	reels   []apiclient.Reel
}

func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Loop == nil {
		return nil, errors.New("event loop is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("backend is required")
	}
	if cfg.Go == nil {
		cfg.Go = func(fn func()) { go fn() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{ctx: ctx, cfg: cfg, logger: logger}

	sched, err := player.NewScheduler(player.SchedulerConfig{
		Players:       cfg.Players,
		Views:         viewRecorder{s},
		Logger:        logger,
		OnStateChange: cfg.OnStateChange,
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	state, err := optimistic.New(optimistic.Config{
		Loop:       cfg.Loop,
		Mutate:     s.mutate,
		Go:         cfg.Go,
		Logger:     logger,
		OnRollback: cfg.OnRollback,
	})
	if err != nil {
		return nil, fmt.Errorf("reconciler: %w", err)
	}

	s.sched = sched
	s.state = state
	s.tracker = player.NewTracker(cfg.VisibilityThreshold, sched.SetActiveIndex)
	s.taps = gesture.New(gesture.Config{
		Timers:   cfg.Loop,
		Window:   cfg.TapWindow,
		OnSingle: sched.TogglePause,
	})
	return s, nil
}

func reelKey(id uint) optimistic.Key { return optimistic.Key{Kind: optimistic.KindReel, ID: id} }
func userKey(id uint) optimistic.Key { return optimistic.Key{Kind: optimistic.KindUser, ID: id} }

// SetReels binds reels to slots in order and seeds interaction state from
// the server's flags. Slots whose identity changes lose their pending tap.
func (s *Session) SetReels(reels []apiclient.Reel) {
	for i, r := range reels {
		if i >= len(s.reels) || s.reels[i].ID != r.ID {
			s.taps.Reset(i)
		}
		s.sched.Bind(i, player.Item{ID: r.ID, VideoURL: r.VideoURL})
		s.state.Seed(reelKey(r.ID), optimistic.Snapshot{
			Liked:      r.IsLiked,
			Bookmarked: r.IsBookmarked,
			LikeCount:  r.LikeCount,
		})
		if !r.IsOwn {
			s.state.Seed(userKey(r.UserID), optimistic.Snapshot{Following: r.IsFollowing})
		}
	}
	for i := len(reels); i < len(s.reels); i++ {
		s.taps.Reset(i)
		s.sched.Unbind(i)
	}
	s.reels = append(s.reels[:0], reels...)
}

// Scroll reports the list offset for one-reel-per-page paging.
func (s *Session) Scroll(offset, viewportHeight float64) {
	s.tracker.ObserveOffset(offset, viewportHeight, len(s.reels))
}

// Observe reports per-slot visibility for free-form layouts.
func (s *Session) Observe(visible []player.Visibility) {
	s.tracker.Observe(visible)
}

func (s *Session) SetForeground(foreground bool) { s.sched.SetForeground(foreground) }
func (s *Session) SetMuted(muted bool)           { s.sched.SetMuted(muted) }

// Tap feeds a tap on slot. A double tap likes the reel unless it is
// already liked.
func (s *Session) Tap(slot int, at time.Time) gesture.Action {
	action := s.taps.OnTap(slot, at)
	if action != gesture.Double {
		return action
	}
	reel, ok := s.reel(slot)
	if !ok {
		return action
	}
	if s.state.State(reelKey(reel.ID)).Liked {
		return action
	}
	s.state.Apply(s.ctx, reelKey(reel.ID), optimistic.Like)
	return action
}

func (s *Session) ToggleLike(slot int)     { s.apply(slot, optimistic.Like) }
func (s *Session) ToggleBookmark(slot int) { s.apply(slot, optimistic.Bookmark) }

// ToggleFollow follows or unfollows the slot's author.
func (s *Session) ToggleFollow(slot int) {
	reel, ok := s.reel(slot)
	if !ok || reel.IsOwn {
		return
	}
	s.state.Apply(s.ctx, userKey(reel.UserID), optimistic.Follow)
}

// View returns what slot should render.
func (s *Session) View(slot int) (SlotView, bool) {
	reel, ok := s.reel(slot)
	if !ok {
		return SlotView{}, false
	}
	content := s.state.State(reelKey(reel.ID))
	view := SlotView{
		Reel:       reel,
		Liked:      content.Liked,
		Bookmarked: content.Bookmarked,
		LikeCount:  content.LikeCount,
		State:      s.sched.State(slot),
		Paused:     s.sched.Paused(slot),
	}
	if !reel.IsOwn {
		view.Following = s.state.State(userKey(reel.UserID)).Following
	}
	return view, true
}

// Active returns the active slot or -1.
func (s *Session) Active() int { return s.sched.Active() }

// Close releases the playback resource.
func (s *Session) Close() { s.sched.Close() }

func (s *Session) apply(slot int, interaction optimistic.Interaction) {
	reel, ok := s.reel(slot)
	if !ok {
		return
	}
	s.state.Apply(s.ctx, reelKey(reel.ID), interaction)
}

func (s *Session) reel(slot int) (apiclient.Reel, bool) {
	if slot < 0 || slot >= len(s.reels) {
		return apiclient.Reel{}, false
	}
	return s.reels[slot], true
}

func (s *Session) mutate(ctx context.Context, key optimistic.Key, interaction optimistic.Interaction) (optimistic.Outcome, error) {
	var (
		active bool
		err    error
	)
	switch interaction {
	case optimistic.Like:
		active, err = s.cfg.Backend.ToggleLike(ctx, apiclient.ReelTarget(key.ID))
	case optimistic.Bookmark:
		active, err = s.cfg.Backend.ToggleBookmark(ctx, apiclient.ReelTarget(key.ID))
	case optimistic.Follow:
		active, err = s.cfg.Backend.ToggleFollow(ctx, key.ID)
	default:
		err = fmt.Errorf("unsupported interaction %s", interaction)
	}
	return optimistic.Outcome{Active: active}, err
}

type viewRecorder struct{ s *Session }

// RecordView is fire-and-forget; a lost view is only logged.
func (v viewRecorder) RecordView(item player.Item) {
	s := v.s
	s.cfg.Go(func() {
		if err := s.cfg.Backend.IncrementViews(s.ctx, item.ID); err != nil {
			s.logger.Warn("record view failed", zap.Uint("reel_id", item.ID), zap.Error(err))
		}
	})
}
