package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/clock"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// Config wires a Controller to its collaborators.
type Config struct {
	Fetcher     Fetcher
	Credentials CredentialSource

	// Images is shared by every controller the caller creates and is not
	// closed by Controller.Close. Optional.
	Images *ImageCache

	Clock     clock.Clock // defaults to the system clock
	Intervals Intervals   // zero fields use DefaultIntervals
	View      visitor.View

	ScrollDebounce time.Duration
	ScrollCooldown time.Duration
}

// Controller owns refresh cadence and in-flight state for one list screen.
// All methods are safe for concurrent use.
type Controller struct {
	store  *Store
	coord  *Coordinator
	images *ImageCache
	sched  *Scheduler
	focus  *FocusObserver
	scroll *ScrollTrigger

	ctx    context.Context
	cancel context.CancelFunc

	unsubImages func()

	mu     sync.Mutex
	closed bool
}

// New creates a stopped controller. Call Start to load and begin polling.
func New(cfg Config) (*Controller, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("refresh: fetcher is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.New("refresh: credential source is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.View == "" {
		cfg.View = visitor.ViewAll
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:  NewStore(),
		images: cfg.Images,
		ctx:    ctx,
		cancel: cancel,
	}
	c.coord = NewCoordinator(c.store, cfg.Fetcher, cfg.Credentials, cfg.Images, cfg.Clock)
	c.sched = NewScheduler(cfg.Clock, cfg.Intervals, cfg.View, func() {
		c.coord.Refresh(c.ctx, Silent)
	})
	c.focus = NewFocusObserver(c.sched, func() {
		c.coord.Trigger(c.ctx, Silent)
	})
	c.scroll = NewScrollTrigger(cfg.Clock, cfg.ScrollDebounce, cfg.ScrollCooldown, func() {
		c.coord.Refresh(c.ctx, Silent)
	})

	if c.images != nil {
		c.unsubImages = c.images.Subscribe(c.store.touch)
	}

	return c, nil
}

// Start performs the initial visible refresh, then arms the poll timer.
// The timer is not armed if the controller was closed meanwhile.
func (c *Controller) Start(ctx context.Context) Outcome {
	out := c.Refresh(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.sched.Start()
	}
	return out
}

// Refresh is a user-requested reload: it shows loading and surfaces errors.
// The fetch is abandoned if either ctx ends or the controller is closed.
func (c *Controller) Refresh(ctx context.Context) Outcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	return c.coord.Refresh(ctx, Visible)
}

// Tick performs one scheduled refresh outside the timer.
func (c *Controller) Tick() Outcome {
	return c.coord.Refresh(c.ctx, Silent)
}

// OnViewChange switches the active tab.
func (c *Controller) OnViewChange(view visitor.View) {
	c.sched.SetView(view)
}

// OnFocusChange records a window focus (true) or blur (false).
func (c *Controller) OnFocusChange(focused bool) {
	c.focus.SetFocused(focused)
}

// OnVisibilityChange records the application becoming visible or hidden.
func (c *Controller) OnVisibilityChange(visible bool) {
	c.focus.SetVisible(visible)
}

// OnScroll reports the list container's scroll position.
func (c *Controller) OnScroll(offset, contentHeight, viewportHeight float64) {
	c.scroll.OnScroll(offset, contentHeight, viewportHeight)
}

// Snapshot returns the current sync state.
func (c *Controller) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// Subscribe registers fn to run after every state change, including image
// resolutions. The returned func removes it.
func (c *Controller) Subscribe(fn func()) func() {
	return c.store.Subscribe(fn)
}

// Images returns the image cache, or nil if none was configured.
func (c *Controller) Images() *ImageCache {
	return c.images
}

// View returns the active tab.
func (c *Controller) View() visitor.View {
	return c.sched.View()
}

// Focus returns the current focus state.
func (c *Controller) Focus() Focus {
	return c.sched.Focus()
}

// Interval returns the current polling period.
func (c *Controller) Interval() time.Duration {
	return c.sched.Interval()
}

// Close stops every timer, abandons running fetches and waits until every
// fetch has returned, including ones started by a timer. Safe to call more
// than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.sched.Stop()
	c.mu.Unlock()

	c.scroll.Stop()
	if c.unsubImages != nil {
		c.unsubImages()
	}
	c.cancel()
	c.coord.Close()
}
