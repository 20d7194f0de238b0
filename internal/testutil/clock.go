// Package testutil provides test doubles shared across packages.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/clock"
)

// FakeClock is a manually advanced clock. Timer callbacks run synchronously
// inside Advance, in due order. Safe for concurrent use.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*FakeTimer
}

// NewFakeClock creates a FakeClock set to 2024-01-15 10:30:00 UTC.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &FakeTimer{
		clock:    c,
		seq:      c.seq,
		Duration: d,
		due:      c.now.Add(d),
		f:        f,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due.
// Timers armed by a callback fire in the same call if they are due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.due
		next.fired = true
		f := next.f
		c.mu.Unlock()

		f()
	}
}

func (c *FakeClock) nextDueLocked(limit time.Time) *FakeTimer {
	var active []*FakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.due.After(limit) {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].due.Equal(active[j].due) {
			return active[i].seq < active[j].seq
		}
		return active[i].due.Before(active[j].due)
	})
	return active[0]
}

// Active returns the timers that have neither fired nor been stopped.
func (c *FakeClock) Active() []*FakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*FakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// Timers returns every timer created so far, in creation order.
func (c *FakeClock) Timers() []*FakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*FakeTimer, len(c.timers))
	copy(out, c.timers)
	return out
}

// FakeTimer is a timer created by FakeClock.
type FakeTimer struct {
	clock    *FakeClock
	seq      int
	due      time.Time
	f        func()
	stopped  bool
	fired    bool
	stops    int
	Duration time.Duration
}

func (t *FakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stops++
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Stops returns how many times Stop was called.
func (t *FakeTimer) Stops() int {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stops
}

// Stopped reports whether the timer was cancelled before firing.
func (t *FakeTimer) Stopped() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.stopped
}
