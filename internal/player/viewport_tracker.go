package player

import "math"

// DefaultVisibilityThreshold is the fraction of the viewport a slot must
// cover to become active.
const DefaultVisibilityThreshold = 0.5

// Visibility is how much of the viewport a slot covers, in [0, 1].
type Visibility struct {
	Index    int
	Fraction float64
}

// Tracker reduces viewport observations to a single active index.
type Tracker struct {
	threshold float64
	active    int
	onChange  func(index int)
}

// NewTracker returns a tracker that calls onChange whenever the active index
// moves. A threshold outside (0, 1] falls back to the default.
func NewTracker(threshold float64, onChange func(index int)) *Tracker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultVisibilityThreshold
	}
	return &Tracker{threshold: threshold, active: -1, onChange: onChange}
}

// Active returns the current active index, or -1 before the first
// qualifying observation.
func (t *Tracker) Active() int {
	return t.active
}

// Observe picks the lowest index whose fraction meets the threshold. When
// nothing qualifies the previous index is kept.
func (t *Tracker) Observe(visible []Visibility) {
	best := -1
	for _, v := range visible {
		if v.Index < 0 || v.Fraction < t.threshold {
			continue
		}
		if best == -1 || v.Index < best {
			best = v.Index
		}
	}
	if best == -1 || best == t.active {
		return
	}
	t.active = best
	if t.onChange != nil {
		t.onChange(best)
	}
}

// ObserveOffset handles a paged list whose items are exactly one viewport
// tall. count bounds the indexes considered.
func (t *Tracker) ObserveOffset(offset, viewportHeight float64, count int) {
	if viewportHeight <= 0 || count <= 0 {
		return
	}
	if offset < 0 {
		offset = 0
	}
	first := int(math.Floor(offset / viewportHeight))
	covered := 1 - (offset-float64(first)*viewportHeight)/viewportHeight
	if first >= count {
		// overscrolled past the last item
		first, covered = count-1, 1
	}
	visible := []Visibility{{Index: first, Fraction: clampFraction(covered)}}
	if first+1 < count {
		visible = append(visible, Visibility{Index: first + 1, Fraction: clampFraction(1 - covered)})
	}
	t.Observe(visible)
}

func clampFraction(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
