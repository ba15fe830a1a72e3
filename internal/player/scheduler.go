// Package player drives video playback for a paged reel feed: the viewport
// tracker elects one slot and the scheduler keeps exactly that slot active.
package player

import (
	"errors"

	"go.uber.org/zap"
)

// SlotState is the playback state of one feed slot.
type SlotState int

const (
	Idle SlotState = iota
	ActivePlaying
	ActivePaused
)

func (s SlotState) String() string {
	switch s {
	case ActivePlaying:
		return "active_playing"
	case ActivePaused:
		return "active_paused"
	default:
		return "idle"
	}
}

// Item is the content bound to a slot. ID is its identity.
type Item struct {
	ID       uint
	VideoURL string
}

// Player is one materialized playback resource.
type Player interface {
	Play()
	Pause()
	SetMuted(muted bool)
	Release()
}

// PlayerFactory materializes a player for an item.
type PlayerFactory interface {
	NewPlayer(item Item) Player
}

// ViewRecorder is told once per activation that an item started playing.
type ViewRecorder interface {
	RecordView(item Item)
}

// SchedulerConfig wires a Scheduler.
type SchedulerConfig struct {
	Players PlayerFactory
	Views   ViewRecorder
	Logger  *zap.Logger
	// OnStateChange, when set, observes every slot transition.
	OnStateChange func(slot int, state SlotState)
}

type slot struct {
	item   Item
	bound  bool
	paused bool
}

// Scheduler keeps at most one slot active. It is not safe for concurrent
// use; drive it from the event loop.
type Scheduler struct {
	cfg    SchedulerConfig
	logger *zap.Logger

	slots      map[int]*slot
	wanted     int
	foreground bool
	muted      bool

	active int
	state  SlotState
	player Player
	viewed bool
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Players == nil {
		return nil, errors.New("player factory is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:        cfg,
		logger:     logger,
		slots:      make(map[int]*slot),
		wanted:     -1,
		foreground: true,
		active:     -1,
	}, nil
}

// Bind attaches item to a slot. Binding a different identity clears the
// slot's pause flag and, if the slot was active, ends that activation.
func (s *Scheduler) Bind(index int, item Item) {
	sl := s.slot(index)
	if sl.bound && sl.item.ID == item.ID {
		sl.item = item
		return
	}
	if s.active == index {
		s.deactivate()
	}
	sl.item = item
	sl.bound = true
	sl.paused = false
	s.evaluate()
}

// Unbind detaches whatever content a recycled slot held.
func (s *Scheduler) Unbind(index int) {
	if s.active == index {
		s.deactivate()
	}
	delete(s.slots, index)
}

// SetActiveIndex is fed by the viewport tracker.
func (s *Scheduler) SetActiveIndex(index int) {
	s.wanted = index
	s.evaluate()
}

// SetForeground gates playback on the screen being visible.
func (s *Scheduler) SetForeground(foreground bool) {
	s.foreground = foreground
	s.evaluate()
}

func (s *Scheduler) SetMuted(muted bool) {
	s.muted = muted
	if s.player != nil {
		s.player.SetMuted(muted)
	}
}

// TogglePause flips the slot's own pause flag. On the active slot it also
// pauses or resumes playback; a resume that is the first play of this
// activation records the view.
func (s *Scheduler) TogglePause(index int) {
	sl, ok := s.slots[index]
	if !ok {
		return
	}
	sl.paused = !sl.paused
	if s.active != index {
		return
	}
	if sl.paused {
		s.player.Pause()
		s.setState(ActivePaused)
		return
	}
	s.player.Play()
	s.setState(ActivePlaying)
	s.recordView(sl)
}

// State reports a slot's playback state.
func (s *Scheduler) State(index int) SlotState {
	if index == s.active {
		return s.state
	}
	return Idle
}

// Active returns the active slot or -1.
func (s *Scheduler) Active() int {
	return s.active
}

// Paused reports a slot's pause flag, which outlives its activations.
func (s *Scheduler) Paused(index int) bool {
	sl, ok := s.slots[index]
	return ok && sl.paused
}

// Close releases the active player.
func (s *Scheduler) Close() {
	s.deactivate()
}

func (s *Scheduler) slot(index int) *slot {
	sl, ok := s.slots[index]
	if !ok {
		sl = &slot{}
		s.slots[index] = sl
	}
	return sl
}

func (s *Scheduler) evaluate() {
	target := -1
	if s.foreground {
		if sl, ok := s.slots[s.wanted]; ok && sl.bound {
			target = s.wanted
		}
	}
	if target == s.active {
		return
	}
	s.deactivate()
	if target >= 0 {
		s.activate(target)
	}
}

// deactivate releases the player before returning so no decoder outlives
// the activation.
func (s *Scheduler) deactivate() {
	if s.active < 0 {
		return
	}
	index := s.active
	s.player.Pause()
	s.player.Release()
	s.player = nil
	s.active = -1
	s.viewed = false
	s.state = Idle
	s.logger.Debug("slot deactivated", zap.Int("slot", index))
	s.notify(index, Idle)
}

func (s *Scheduler) activate(index int) {
	sl := s.slots[index]
	s.active = index
	s.viewed = false
	s.player = s.cfg.Players.NewPlayer(sl.item)
	s.player.SetMuted(s.muted)

	if sl.paused {
		s.state = ActivePaused
		s.logger.Debug("slot activated paused", zap.Int("slot", index), zap.Uint("item_id", sl.item.ID))
		s.notify(index, ActivePaused)
		return
	}
	s.player.Play()
	s.state = ActivePlaying
	s.logger.Debug("slot activated", zap.Int("slot", index), zap.Uint("item_id", sl.item.ID))
	s.notify(index, ActivePlaying)
	s.recordView(sl)
}

func (s *Scheduler) setState(state SlotState) {
	if s.state == state {
		return
	}
	s.state = state
	s.notify(s.active, state)
}

func (s *Scheduler) recordView(sl *slot) {
	if s.viewed {
		return
	}
	s.viewed = true
	if s.cfg.Views != nil {
		s.cfg.Views.RecordView(sl.item)
	}
}

func (s *Scheduler) notify(index int, state SlotState) {
	if s.cfg.OnStateChange != nil {
		s.cfg.OnStateChange(index, state)
	}
}
