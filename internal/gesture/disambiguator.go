// Package gesture tells single taps from double taps on feed slots.
package gesture

import (
	"time"

	"github.com/anonto42/snapreel/backend/internal/eventloop"
)

// DefaultWindow is the longest gap between the taps of a double tap.
const DefaultWindow = 300 * time.Millisecond

// Action is the classification of a tap.
type Action int

const (
	// None means the tap is pending; a Single may follow via OnSingle.
	None Action = iota
	Single
	Double
)

func (a Action) String() string {
	switch a {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return "none"
	}
}

// Timers arms deferred single-tap deliveries.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
}

// Config configures a Disambiguator.
type Config struct {
	Timers Timers
	Window time.Duration
	// OnSingle receives each single tap once its window has elapsed.
	OnSingle func(slot int)
}

type pendingTap struct {
	at    time.Time
	timer eventloop.Timer
}

// Disambiguator keeps per-slot tap state. Like the scheduler it is driven
// from the event loop and is not safe for concurrent use.
type Disambiguator struct {
	timers   Timers
	window   time.Duration
	onSingle func(slot int)
	pending  map[int]*pendingTap
}

func New(cfg Config) *Disambiguator {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Disambiguator{
		timers:   cfg.Timers,
		window:   window,
		onSingle: cfg.OnSingle,
		pending:  make(map[int]*pendingTap),
	}
}

// OnTap classifies a tap. A tap inside the window of a pending one returns
// Double and cancels the pending single; any other tap returns None and
// arms a timer that reports Single when the window closes.
func (d *Disambiguator) OnTap(slot int, at time.Time) Action {
	if prev, ok := d.pending[slot]; ok {
		delete(d.pending, slot)
		prev.timer.Stop()
		if gap := at.Sub(prev.at); gap >= 0 && gap < d.window {
			return Double
		}
		// A stale pending tap whose timer has not been delivered yet still
		// counts as a single.
		d.fireSingle(slot)
	}

	p := &pendingTap{at: at}
	p.timer = d.timers.AfterFunc(d.window, func() {
		if d.pending[slot] != p {
			return
		}
		delete(d.pending, slot)
		d.fireSingle(slot)
	})
	d.pending[slot] = p
	return None
}

// Reset drops any pending tap on a slot, for example when it is recycled.
func (d *Disambiguator) Reset(slot int) {
	if p, ok := d.pending[slot]; ok {
		p.timer.Stop()
		delete(d.pending, slot)
	}
}

func (d *Disambiguator) fireSingle(slot int) {
	if d.onSingle != nil {
		d.onSingle(slot)
	}
}
