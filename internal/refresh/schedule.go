package refresh

import (
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/clock"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// Focus is whether the application is in the foreground.
type Focus int

const (
	Foreground Focus = iota
	Background
)

func (f Focus) String() string {
	if f == Background {
		return "background"
	}
	return "foreground"
}

// Intervals are the three polling periods.
type Intervals struct {
	Short  time.Duration // visitor-request tab, any focus
	Medium time.Duration // other tabs, foreground
	Long   time.Duration // other tabs, background
}

// DefaultIntervals returns 10s / 30s / 120s.
func DefaultIntervals() Intervals {
	return Intervals{
		Short:  10 * time.Second,
		Medium: 30 * time.Second,
		Long:   120 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultIntervals.
func (iv Intervals) withDefaults() Intervals {
	d := DefaultIntervals()
	if iv.Short <= 0 {
		iv.Short = d.Short
	}
	if iv.Medium <= 0 {
		iv.Medium = d.Medium
	}
	if iv.Long <= 0 {
		iv.Long = d.Long
	}
	return iv
}

// For returns the polling period for a view and focus state.
func (iv Intervals) For(view visitor.View, focus Focus) time.Duration {
	switch {
	case view == visitor.ViewVisitorRequest:
		return iv.Short
	case focus == Foreground:
		return iv.Medium
	default:
		return iv.Long
	}
}

// Scheduler owns the single repeating poll timer. Its period follows the
// active view and focus; a change of period replaces the timer at once.
type Scheduler struct {
	clock     clock.Clock
	intervals Intervals
	tick      func()

	mu       sync.Mutex
	view     visitor.View
	focus    Focus
	interval time.Duration
	timer    clock.Timer
	gen      uint64 // bumped whenever the timer is torn down
	running  bool
}

// NewScheduler creates a stopped scheduler that calls tick on every period.
func NewScheduler(clk clock.Clock, intervals Intervals, view visitor.View, tick func()) *Scheduler {
	intervals = intervals.withDefaults()
	return &Scheduler{
		clock:     clk,
		intervals: intervals,
		tick:      tick,
		view:      view,
		focus:     Foreground,
		interval:  intervals.For(view, Foreground),
	}
}

// Start arms the timer. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.armLocked()
}

// Stop cancels the timer. No tick runs after Stop returns, except one
// that had already begun.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.teardownLocked()
}

// SetView switches the active view. It reports whether the timer was replaced.
func (s *Scheduler) SetView(view visitor.View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
	return s.recomputeLocked()
}

// SetFocus switches the focus state. It reports whether the timer was replaced.
func (s *Scheduler) SetFocus(focus Focus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = focus
	return s.recomputeLocked()
}

// Interval returns the current polling period.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// View returns the active view.
func (s *Scheduler) View() visitor.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Focus returns the focus state.
func (s *Scheduler) Focus() Focus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

func (s *Scheduler) recomputeLocked() bool {
	next := s.intervals.For(s.view, s.focus)
	if next == s.interval {
		return false
	}
	prev := s.interval
	s.interval = next
	if !s.running {
		return false
	}

	// The old timer is gone before the new one exists; elapsed time is dropped.
	s.teardownLocked()
	s.armLocked()
	slog.Debug("poll interval changed",
		"view", s.view, "focus", s.focus.String(),
		"from", prev.String(), "to", next.String())
	return true
}

func (s *Scheduler) teardownLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) armLocked() {
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.interval, func() { s.fire(gen) })
}

// fire runs one tick and re-arms for the next period. A callback from a
// torn-down timer is ignored.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.armLocked()
	s.mu.Unlock()

	s.tick()
}
