package refresh

import (
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/clock"
)

const (
	// ScrollThreshold is the scroll percentage past which a refresh is requested.
	ScrollThreshold = 80.0

	DefaultScrollDebounce = 300 * time.Millisecond
	DefaultScrollCooldown = time.Second
)

// ScrollPercentage returns how far through the scrollable range offset is.
// It reports false when the content fits in the viewport.
func ScrollPercentage(offset, contentHeight, viewportHeight float64) (float64, bool) {
	scrollable := contentHeight - viewportHeight
	if scrollable <= 0 {
		return 0, false
	}
	return offset / scrollable * 100, true
}

// ScrollTrigger requests a silent refresh when the user nears the end of
// the list. The first qualifying event arms a short debounce and later
// events ride on it, so continuous scrolling still refreshes. After the
// debounce fires the trigger stays quiet for a cooldown.
type ScrollTrigger struct {
	clock    clock.Clock
	refresh  func()
	debounce time.Duration
	cooldown time.Duration

	mu      sync.Mutex
	pending clock.Timer
	cooling clock.Timer
	gen     uint64
	stopped bool
}

// NewScrollTrigger creates a trigger. Zero durations use the defaults.
func NewScrollTrigger(clk clock.Clock, debounce, cooldown time.Duration, refresh func()) *ScrollTrigger {
	if debounce <= 0 {
		debounce = DefaultScrollDebounce
	}
	if cooldown <= 0 {
		cooldown = DefaultScrollCooldown
	}
	return &ScrollTrigger{
		clock:    clk,
		refresh:  refresh,
		debounce: debounce,
		cooldown: cooldown,
	}
}

// OnScroll handles one scroll position. It reports whether the event
// qualified, that is whether a refresh is pending after it.
func (t *ScrollTrigger) OnScroll(offset, contentHeight, viewportHeight float64) bool {
	pct, ok := ScrollPercentage(offset, contentHeight, viewportHeight)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}

	if !ok || pct <= ScrollThreshold || t.cooling != nil {
		return false
	}
	if t.pending != nil {
		return true
	}

	gen := t.gen
	t.pending = t.clock.AfterFunc(t.debounce, func() { t.fire(gen) })
	return true
}

// Cooling reports whether the trigger is in its post-dispatch cooldown.
func (t *ScrollTrigger) Cooling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cooling != nil
}

// Stop cancels any pending or cooling timer. The trigger ignores later events.
func (t *ScrollTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.cancelPendingLocked()
	if t.cooling != nil {
		t.cooling.Stop()
		t.cooling = nil
	}
}

func (t *ScrollTrigger) cancelPendingLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

func (t *ScrollTrigger) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	var cooling clock.Timer
	cooling = t.clock.AfterFunc(t.cooldown, func() {
		t.mu.Lock()
		if t.cooling == cooling {
			t.cooling = nil
		}
		t.mu.Unlock()
	})
	t.cooling = cooling
	t.mu.Unlock()

	t.refresh()
}
