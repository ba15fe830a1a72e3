package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	factory  *fakeFactory
	item     Item
	playing  bool
	muted    bool
	released bool
}

func (p *fakePlayer) Play()           { p.playing = true }
func (p *fakePlayer) Pause()          { p.playing = false }
func (p *fakePlayer) SetMuted(m bool) { p.muted = m }
func (p *fakePlayer) Release() {
	p.released = true
	p.factory.live--
}

type fakeFactory struct {
	created []*fakePlayer
	live    int
	maxLive int
}

func (f *fakeFactory) NewPlayer(item Item) Player {
	p := &fakePlayer{factory: f, item: item}
	f.created = append(f.created, p)
	f.live++
	if f.live > f.maxLive {
		f.maxLive = f.live
	}
	return p
}

func (f *fakeFactory) current() *fakePlayer {
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

type viewLog struct{ ids []uint }

func (v *viewLog) RecordView(item Item) { v.ids = append(v.ids, item.ID) }

type harness struct {
	sched   *Scheduler
	players *fakeFactory
	views   *viewLog
	// activeCount is checked on every transition.
	maxActive int
}

func newHarness(t *testing.T, items ...uint) *harness {
	t.Helper()
	h := &harness{players: &fakeFactory{}, views: &viewLog{}}
	var sched *Scheduler
	sched, err := NewScheduler(SchedulerConfig{
		Players: h.players,
		Views:   h.views,
		OnStateChange: func(int, SlotState) {
			if sched == nil {
				return
			}
			n := 0
			for i := range items {
				if sched.State(i) != Idle {
					n++
				}
			}
			if n > h.maxActive {
				h.maxActive = n
			}
		},
	})
	require.NoError(t, err)
	h.sched = sched
	for i, id := range items {
		sched.Bind(i, Item{ID: id, VideoURL: "https://cdn.example.com/reel.mp4"})
	}
	return h
}

func TestNewSchedulerRequiresFactory(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{})
	require.Error(t, err)
}

func TestSchedulerSingleActiveSlot(t *testing.T) {
	h := newHarness(t, 10, 11, 12, 13)
	for _, idx := range []int{0, 1, 2, 1, 3, 3, 0, 2} {
		h.sched.SetActiveIndex(idx)
		assert.Equal(t, idx, h.sched.Active())
		assert.Equal(t, ActivePlaying, h.sched.State(idx))
		assert.Equal(t, 1, h.players.live)
	}
	assert.Equal(t, 1, h.maxActive)
	assert.Equal(t, 1, h.players.maxLive)

	for _, p := range h.players.created[:len(h.players.created)-1] {
		assert.True(t, p.released)
		assert.False(t, p.playing)
	}
}

func TestSchedulerViewOncePerActivation(t *testing.T) {
	h := newHarness(t, 10, 11)

	h.sched.SetActiveIndex(0)
	for i := 0; i < 4; i++ {
		h.sched.TogglePause(0)
	}
	assert.Equal(t, []uint{10}, h.views.ids, "pause and resume do not recount")

	h.sched.SetActiveIndex(1)
	h.sched.SetActiveIndex(0)
	assert.Equal(t, []uint{10, 11, 10}, h.views.ids, "re-entering counts again")
}

func TestSchedulerPauseFlagSurvivesReactivation(t *testing.T) {
	h := newHarness(t, 10, 11)

	h.sched.SetActiveIndex(0)
	h.sched.TogglePause(0)
	assert.Equal(t, ActivePaused, h.sched.State(0))
	assert.False(t, h.players.current().playing)

	h.sched.SetActiveIndex(1)
	assert.Equal(t, Idle, h.sched.State(0))
	assert.True(t, h.sched.Paused(0))

	h.sched.SetActiveIndex(0)
	assert.Equal(t, ActivePaused, h.sched.State(0))
	assert.False(t, h.players.current().playing)
	assert.Equal(t, []uint{10, 11}, h.views.ids, "paused activation has not played yet")

	h.sched.TogglePause(0)
	assert.Equal(t, ActivePlaying, h.sched.State(0))
	assert.Equal(t, []uint{10, 11, 10}, h.views.ids)
}

func TestSchedulerRebindResetsSlot(t *testing.T) {
	h := newHarness(t, 10, 11)

	h.sched.SetActiveIndex(0)
	h.sched.TogglePause(0)
	first := h.players.current()

	h.sched.Bind(0, Item{ID: 10, VideoURL: "https://cdn.example.com/other.mp4"})
	assert.Same(t, first, h.players.current(), "same identity keeps the activation")
	assert.True(t, h.sched.Paused(0))

	h.sched.Bind(0, Item{ID: 99})
	assert.True(t, first.released)
	assert.False(t, h.sched.Paused(0))
	assert.Equal(t, ActivePlaying, h.sched.State(0))
	assert.Equal(t, uint(99), h.players.current().item.ID)
	assert.Equal(t, []uint{10, 99}, h.views.ids)
	assert.Equal(t, 1, h.players.live)
}

func TestSchedulerForegroundGate(t *testing.T) {
	h := newHarness(t, 10)

	h.sched.SetForeground(false)
	h.sched.SetActiveIndex(0)
	assert.Equal(t, Idle, h.sched.State(0))
	assert.Zero(t, h.players.live)

	h.sched.SetForeground(true)
	assert.Equal(t, ActivePlaying, h.sched.State(0))

	h.sched.SetForeground(false)
	assert.Equal(t, -1, h.sched.Active())
	assert.Zero(t, h.players.live)
	assert.True(t, h.players.current().released)
	assert.Equal(t, []uint{10}, h.views.ids)
}

func TestSchedulerUnboundSlotStaysIdle(t *testing.T) {
	h := newHarness(t, 10)
	h.sched.SetActiveIndex(5)
	assert.Equal(t, -1, h.sched.Active())

	h.sched.SetActiveIndex(0)
	h.sched.Unbind(0)
	assert.Equal(t, -1, h.sched.Active())
	assert.Zero(t, h.players.live)

	h.sched.Bind(0, Item{ID: 12})
	assert.Equal(t, 0, h.sched.Active(), "still the wanted index")
}

func TestSchedulerMute(t *testing.T) {
	h := newHarness(t, 10, 11)
	h.sched.SetMuted(true)
	h.sched.SetActiveIndex(0)
	assert.True(t, h.players.current().muted)
	h.sched.SetActiveIndex(1)
	assert.True(t, h.players.current().muted)
	h.sched.SetMuted(false)
	assert.False(t, h.players.current().muted)
}

func TestTrackerObserve(t *testing.T) {
	var changes []int
	tr := NewTracker(0, func(i int) { changes = append(changes, i) })
	assert.Equal(t, -1, tr.Active())

	tr.Observe([]Visibility{{Index: 0, Fraction: 0.3}, {Index: 1, Fraction: 0.2}})
	assert.Empty(t, changes)

	tr.Observe([]Visibility{{Index: 2, Fraction: 0.5}, {Index: 1, Fraction: 0.5}})
	assert.Equal(t, []int{1}, changes, "lowest qualifying index wins")

	tr.Observe([]Visibility{{Index: 1, Fraction: 0.9}})
	assert.Equal(t, []int{1}, changes, "no report without a change")

	tr.Observe(nil)
	assert.Equal(t, 1, tr.Active(), "nothing visible keeps the previous index")

	tr.Observe([]Visibility{{Index: 2, Fraction: 0.51}, {Index: 1, Fraction: 0.49}})
	assert.Equal(t, []int{1, 2}, changes)
}

func TestTrackerObserveOffset(t *testing.T) {
	var changes []int
	tr := NewTracker(DefaultVisibilityThreshold, func(i int) { changes = append(changes, i) })

	tr.ObserveOffset(0, 800, 5)
	tr.ObserveOffset(300, 800, 5)
	tr.ObserveOffset(500, 800, 5)
	tr.ObserveOffset(1600, 800, 5)
	tr.ObserveOffset(99999, 800, 5)
	assert.Equal(t, []int{0, 1, 2, 4}, changes)
}

func TestTrackerDrivesScheduler(t *testing.T) {
	h := newHarness(t, 10, 11, 12)
	tr := NewTracker(0.5, h.sched.SetActiveIndex)

	for offset := 0.0; offset <= 1600; offset += 40 {
		tr.ObserveOffset(offset, 800, 3)
		assert.LessOrEqual(t, h.players.live, 1)
	}
	assert.Equal(t, 2, h.sched.Active())
	assert.Equal(t, []uint{10, 11, 12}, h.views.ids)
	assert.Equal(t, 1, h.maxActive)
}
