package refresh

import "sync"

// FocusObserver turns visibility and window focus signals into scheduler
// focus changes. Coming back to the foreground also requests an immediate
// refresh; going to the background only slows polling.
type FocusObserver struct {
	scheduler *Scheduler
	refresh   func()

	mu      sync.Mutex
	visible bool
	focused bool
}

// NewFocusObserver creates an observer that starts visible and focused.
func NewFocusObserver(scheduler *Scheduler, refresh func()) *FocusObserver {
	return &FocusObserver{
		scheduler: scheduler,
		refresh:   refresh,
		visible:   true,
		focused:   true,
	}
}

// SetVisible records an application visible/hidden signal.
func (o *FocusObserver) SetVisible(visible bool) {
	o.mu.Lock()
	changed := o.visible != visible
	o.visible = visible
	o.mu.Unlock()

	if changed {
		o.transition(visible)
	}
}

// SetFocused records a window focus/blur signal.
func (o *FocusObserver) SetFocused(focused bool) {
	o.mu.Lock()
	changed := o.focused != focused
	o.focused = focused
	o.mu.Unlock()

	if changed {
		o.transition(focused)
	}
}

func (o *FocusObserver) transition(active bool) {
	if !active {
		o.scheduler.SetFocus(Background)
		return
	}
	o.scheduler.SetFocus(Foreground)
	if o.refresh != nil {
		o.refresh()
	}
}
