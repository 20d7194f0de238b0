//go:build !unix

package cli

import "os"

const canSuspend = false

type termSignals struct {
	resize chan os.Signal
	resume chan os.Signal
}

// newTermSignals returns channels that never fire; resize is picked up on
// the next redraw instead.
func newTermSignals() *termSignals {
	return &termSignals{}
}

func (s *termSignals) stop() {}

func (s *termSignals) suspend() error { return nil }
