// Package refresh keeps a visitor list fresh for an open list screen.
//
// A Controller combines a Coordinator (the single in-flight fetch guard), an
// adaptive Scheduler, a FocusObserver, a ScrollTrigger and an ImageCache.
// Every trigger source funnels through Coordinator.Refresh, so at most one
// fetch runs at a time and a trigger that arrives during a fetch is dropped.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evcraddock/visitor-desk/internal/clock"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// Mode says whether a refresh is user-facing.
type Mode int

const (
	// Visible refreshes show the loading state and surface errors.
	Visible Mode = iota
	// Silent refreshes never show loading or errors.
	Silent
)

func (m Mode) String() string {
	if m == Silent {
		return "silent"
	}
	return "visible"
}

// Outcome is the result of a refresh request.
type Outcome int

const (
	Refreshed Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Refreshed:
		return "refreshed"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Fetcher returns the complete visitor list and the server's total count.
type Fetcher interface {
	FetchVisitors(ctx context.Context, token string) ([]visitor.Visitor, int, error)
}

// CredentialSource supplies the bearer token for each fetch.
type CredentialSource interface {
	Token() (string, error)
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() (string, error)

func (f CredentialFunc) Token() (string, error) { return f() }

// Coordinator performs fetches and applies their results to a Store.
type Coordinator struct {
	store   *Store
	fetcher Fetcher
	creds   CredentialSource
	images  *ImageCache
	holder  *ImageHolder
	clock   clock.Clock

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewCoordinator creates a coordinator. images may be nil.
func NewCoordinator(store *Store, fetcher Fetcher, creds CredentialSource, images *ImageCache, clk clock.Clock) *Coordinator {
	if clk == nil {
		clk = clock.Real{}
	}
	c := &Coordinator{
		store:   store,
		fetcher: fetcher,
		creds:   creds,
		images:  images,
		clock:   clk,
	}
	if images != nil {
		c.holder = images.Holder()
	}
	return c
}

// Refresh fetches the visitor list and blocks until it is applied.
// It returns Skipped without doing anything if a fetch is already running
// or the coordinator is closed.
func (c *Coordinator) Refresh(ctx context.Context, mode Mode) Outcome {
	if !c.enter() {
		return Skipped
	}
	defer c.wg.Done()

	if !c.store.begin(mode) {
		slog.Debug("refresh skipped, fetch in flight", "mode", mode.String())
		return Skipped
	}
	return c.run(ctx, mode)
}

// Trigger is Refresh without waiting: the in-flight check happens before
// Trigger returns and the fetch runs on its own goroutine. It reports
// whether the fetch was started.
func (c *Coordinator) Trigger(ctx context.Context, mode Mode) bool {
	if !c.enter() {
		return false
	}
	if !c.store.begin(mode) {
		c.wg.Done()
		slog.Debug("refresh skipped, fetch in flight", "mode", mode.String())
		return false
	}
	go func() {
		defer c.wg.Done()
		c.run(ctx, mode)
	}()
	return true
}

// enter registers a refresh unless the coordinator is closed.
func (c *Coordinator) enter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

// Wait blocks until every running refresh has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close rejects new refreshes, waits for running ones (whichever
// goroutine started them) and releases this coordinator's image refs.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	if c.holder != nil {
		c.holder.Release()
	}
}

func (c *Coordinator) run(ctx context.Context, mode Mode) Outcome {
	visitors, total, err := c.fetch(ctx)
	if err != nil {
		fe := classify(err)
		c.store.fail(mode, fe)
		if mode == Silent {
			slog.Warn("background refresh failed", "kind", fe.Kind.String(), "err", fe.Err)
		} else {
			slog.Error("refresh failed", "kind", fe.Kind.String(), "err", fe.Err)
		}
		return Failed
	}

	if visitors == nil {
		visitors = make([]visitor.Visitor, 0)
	}
	c.store.succeed(visitors, total, c.clock.Now())
	slog.Debug("refresh complete", "mode", mode.String(), "count", len(visitors), "total", total)

	if c.images != nil {
		refs := imageRefs(visitors)
		c.holder.Retain(refs)
		c.images.Prefetch(refs)
	}
	return Refreshed
}

// fetch reads the token and calls the fetcher. A panic in either is
// reported as a network failure so the in-flight flag is always cleared.
func (c *Coordinator) fetch(ctx context.Context) (visitors []visitor.Visitor, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: fetch panicked: %v", ErrNetworkFailure, r)
		}
	}()

	token, err := c.creds.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading credential: %v", ErrNotAuthenticated, err)
	}
	if token == "" {
		return nil, 0, fmt.Errorf("%w: no API key configured", ErrNotAuthenticated)
	}

	return c.fetcher.FetchVisitors(ctx, token)
}

func imageRefs(visitors []visitor.Visitor) []string {
	refs := make([]string, 0, len(visitors))
	for _, v := range visitors {
		if v.ImageRef != "" {
			refs = append(refs, v.ImageRef)
		}
	}
	return refs
}
