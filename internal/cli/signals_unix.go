//go:build unix

package cli

import (
	"os"
	"os/signal"
	"syscall"
)

const canSuspend = true

// termSignals delivers terminal resize and job-control resume signals.
type termSignals struct {
	resize chan os.Signal
	resume chan os.Signal
}

func newTermSignals() *termSignals {
	s := &termSignals{
		resize: make(chan os.Signal, 1),
		resume: make(chan os.Signal, 1),
	}
	signal.Notify(s.resize, syscall.SIGWINCH)
	signal.Notify(s.resume, syscall.SIGCONT)
	return s
}

func (s *termSignals) stop() {
	signal.Stop(s.resize)
	signal.Stop(s.resume)
}

// suspend stops the process the way Ctrl-Z does in cooked mode.
// Execution continues here after SIGCONT.
func (s *termSignals) suspend() error {
	return syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
}
