package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/evcraddock/visitor-desk/internal/logging"
	"github.com/evcraddock/visitor-desk/internal/refresh"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func newWatchCmd() *cobra.Command {
	var (
		view    string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show a live visitor list",
		Long: `Show the visitor list and keep it fresh.

Keys: 1/2/3 switch tabs, j/k or arrows scroll, space/b page, r refresh, q quit.
The list polls faster on the Visitor Requests tab and slower while the
terminal is unfocused. Ctrl-Z pauses polling until the command is resumed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), visitor.View(view), logFile)
		},
	}

	cmd.Flags().StringVar(&view, "view", string(visitor.ViewAll), "initial view (all|my-invites|visitor-request)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write debug logs to this file")

	return cmd
}

func runWatch(ctx context.Context, view visitor.View, logFile string) error {
	if !validView(view) {
		return fmt.Errorf("invalid view %q (want all, my-invites or visitor-request)", view)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	inFd, outFd := int(os.Stdin.Fd()), int(os.Stdout.Fd())
	if !term.IsTerminal(inFd) || !term.IsTerminal(outFd) {
		return fmt.Errorf("watch needs an interactive terminal; use 'vd list' instead")
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logging.SetupWriter(f, true)
	} else {
		logging.Discard()
	}

	ctrl, cache, err := newController(view)
	if err != nil {
		return err
	}
	defer cache.Close()
	defer ctrl.Close()

	me := lookupMe(ctx)

	oldState, err := term.MakeRaw(inFd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	restore := func() {
		_, _ = fmt.Fprint(os.Stdout, leaveScreen)
		_ = term.Restore(inFd, oldState)
	}
	defer restore()
	_, _ = fmt.Fprint(os.Stdout, enterScreen)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	goRefresh := func(fn func(context.Context) refresh.Outcome) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	redraw := make(chan struct{}, 1)
	unsubscribe := ctrl.Subscribe(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	input := make(chan []byte)
	go readInput(os.Stdin, input, ctx.Done())

	sigs := newTermSignals()
	defer sigs.stop()

	st := watchState{view: view}
	draw := func() {
		w, h, err := term.GetSize(outFd)
		if err != nil {
			w, h = 80, 24
		}
		st.viewport = listHeight(h)
		snap := ctrl.Snapshot()
		rows := visitor.Filter(snap.Visitors, st.view, me)
		st.rows = len(rows)
		st.offset = clampOffset(st.offset, st.rows, st.viewport)
		f := frame{
			snap:     snap,
			view:     st.view,
			rows:     rows,
			image:    cache.Lookup,
			offset:   st.offset,
			width:    w,
			height:   h,
			interval: ctrl.Interval(),
			focus:    ctrl.Focus(),
		}
		if err := drawFrame(os.Stdout, f.lines()); err != nil {
			slog.Debug("draw failed", "error", err)
		}
	}

	goRefresh(ctrl.Start)
	draw()

	for {
		suspended := false
		select {
		case <-ctx.Done():
			return nil
		case <-redraw:
		case <-sigs.resize:
		case <-sigs.resume:
			if _, err := term.MakeRaw(inFd); err != nil {
				return fmt.Errorf("re-entering raw mode: %w", err)
			}
			_, _ = fmt.Fprint(os.Stdout, enterScreen)
			ctrl.OnVisibilityChange(true)
		case buf, ok := <-input:
			if !ok {
				return nil
			}
			for _, ev := range parseInput(buf) {
				switch ev.kind {
				case keyQuit:
					return nil
				case keyRefresh:
					goRefresh(ctrl.Refresh)
				case keyView:
					if ev.view != st.view {
						st.view = ev.view
						st.offset = 0
						ctrl.OnViewChange(ev.view)
					}
				case keyUp, keyDown, keyPageUp, keyPageDown:
					if st.scroll(ev.kind) {
						ctrl.OnScroll(float64(st.offset), float64(st.rows), float64(st.viewport))
					}
				case keyFocusIn:
					ctrl.OnFocusChange(true)
				case keyFocusOut:
					ctrl.OnFocusChange(false)
				case keySuspend:
					if !canSuspend {
						continue
					}
					ctrl.OnVisibilityChange(false)
					restore()
					if err := sigs.suspend(); err != nil {
						slog.Warn("suspend failed", "error", err)
					}
					suspended = true
				}
			}
		}
		if !suspended {
			draw()
		}
	}
}

// watchState is the scroll position of the watch screen.
type watchState struct {
	view     visitor.View
	offset   int
	rows     int
	viewport int
}

// scroll moves the offset for a scroll key and reports whether it changed.
func (s *watchState) scroll(kind keyKind) bool {
	next := s.offset
	switch kind {
	case keyUp:
		next--
	case keyDown:
		next++
	case keyPageUp:
		next -= s.viewport
	case keyPageDown:
		next += s.viewport
	}
	next = clampOffset(next, s.rows, s.viewport)
	if next == s.offset {
		return false
	}
	s.offset = next
	return true
}

// lookupMe returns the signed-in user's email for the My Invites tab.
// The tab shows nothing if the lookup fails.
func lookupMe(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	who, err := newAPIClient().Me(ctx)
	if err != nil {
		slog.Warn("looking up current user", "error", err)
		return ""
	}
	return who.Email
}

// readInput forwards raw chunks from r until it fails or done closes.
// A Read already blocked on a terminal still returns only on the next key.
func readInput(r io.Reader, out chan<- []byte, done <-chan struct{}) {
	defer close(out)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
