package refresh

import (
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// Snapshot is a consistent read of the sync state. Visitors is shared with
// the store and must not be modified.
type Snapshot struct {
	Visitors    []visitor.Visitor
	Total       int
	Err         *FetchError // last user-visible error
	Loading     bool        // a visible fetch is running
	InFlight    bool        // any fetch is running
	LastSuccess time.Time

	// Diagnostics for background refreshes. Never shown as an error.
	SilentFailures int
	LastSilentErr  *FetchError
}

// Store holds the current visitor list and fetch status.
type Store struct {
	mu        sync.RWMutex
	state     Snapshot
	listeners listeners
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after every state change.
// The returned func removes it.
func (s *Store) Subscribe(fn func()) func() {
	return s.listeners.add(fn)
}

// begin marks a fetch as in flight. It reports false, changing nothing,
// when another fetch is already running.
func (s *Store) begin(mode Mode) bool {
	s.mu.Lock()
	if s.state.InFlight {
		s.mu.Unlock()
		return false
	}
	s.state.InFlight = true
	if mode == Visible {
		s.state.Loading = true
	}
	s.mu.Unlock()

	s.listeners.notify()
	return true
}

// succeed replaces the dataset and clears the error as one step.
func (s *Store) succeed(visitors []visitor.Visitor, total int, at time.Time) {
	s.mu.Lock()
	s.state.Visitors = visitors
	s.state.Total = total
	s.state.Err = nil
	s.state.Loading = false
	s.state.InFlight = false
	s.state.LastSuccess = at
	s.state.SilentFailures = 0
	s.mu.Unlock()

	s.listeners.notify()
}

// fail ends a fetch without touching the dataset. Only visible fetches
// change the user-visible error.
func (s *Store) fail(mode Mode, err *FetchError) {
	s.mu.Lock()
	if mode == Visible {
		s.state.Err = err
		s.state.Loading = false
	} else {
		s.state.SilentFailures++
		s.state.LastSilentErr = err
	}
	s.state.InFlight = false
	s.mu.Unlock()

	s.listeners.notify()
}

// touch notifies listeners without a state change, e.g. when an image settles.
func (s *Store) touch() {
	s.listeners.notify()
}
