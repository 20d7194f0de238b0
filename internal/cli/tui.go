package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evcraddock/visitor-desk/internal/refresh"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// Terminal control sequences used by the watch screen.
const (
	enterScreen = "\x1b[?1049h\x1b[?25l\x1b[?1004h" // alt screen, hide cursor, focus reports on
	leaveScreen = "\x1b[?1004l\x1b[?25h\x1b[?1049l"
	clearScreen = "\x1b[H\x1b[2J"
)

type keyKind int

const (
	keyQuit keyKind = iota + 1
	keyRefresh
	keyUp
	keyDown
	keyPageUp
	keyPageDown
	keyView
	keyFocusIn
	keyFocusOut
	keySuspend
)

type keyEvent struct {
	kind keyKind
	view visitor.View // set for keyView
}

// parseInput decodes a chunk of raw terminal input into key events.
// Unknown bytes and escape sequences are ignored.
func parseInput(buf []byte) []keyEvent {
	var events []keyEvent
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b == 0x1b && i+2 < len(buf) && buf[i+1] == '[':
			n, ev, ok := parseCSI(buf[i+2:])
			if ok {
				events = append(events, ev)
			}
			i += 1 + n
		case b == 'q' || b == 0x03:
			events = append(events, keyEvent{kind: keyQuit})
		case b == 0x1a:
			events = append(events, keyEvent{kind: keySuspend})
		case b == 'r':
			events = append(events, keyEvent{kind: keyRefresh})
		case b == 'j':
			events = append(events, keyEvent{kind: keyDown})
		case b == 'k':
			events = append(events, keyEvent{kind: keyUp})
		case b == ' ':
			events = append(events, keyEvent{kind: keyPageDown})
		case b == 'b':
			events = append(events, keyEvent{kind: keyPageUp})
		case b >= '1' && int(b-'1') < len(visitor.Views):
			events = append(events, keyEvent{kind: keyView, view: visitor.Views[b-'1']})
		}
	}
	return events
}

// parseCSI decodes the body of a CSI sequence (the bytes after ESC [).
// It returns how many bytes it consumed.
func parseCSI(rest []byte) (int, keyEvent, bool) {
	switch rest[0] {
	case 'A':
		return 1, keyEvent{kind: keyUp}, true
	case 'B':
		return 1, keyEvent{kind: keyDown}, true
	case 'I':
		return 1, keyEvent{kind: keyFocusIn}, true
	case 'O':
		return 1, keyEvent{kind: keyFocusOut}, true
	}
	if len(rest) >= 2 && rest[1] == '~' {
		switch rest[0] {
		case '5':
			return 2, keyEvent{kind: keyPageUp}, true
		case '6':
			return 2, keyEvent{kind: keyPageDown}, true
		}
	}
	for n, c := range rest {
		if c >= 0x40 && c <= 0x7e {
			return n + 1, keyEvent{}, false
		}
	}
	return len(rest), keyEvent{}, false
}

// frame is everything needed to draw one screen of the watch view.
type frame struct {
	snap     refresh.Snapshot
	view     visitor.View
	rows     []visitor.Visitor
	image    func(ref string) refresh.ImageEntry
	offset   int
	width    int
	height   int
	interval time.Duration
	focus    refresh.Focus
}

// Lines above and below the list.
const (
	headerLines = 3
	footerLines = 1
)

func listHeight(termHeight int) int {
	h := termHeight - headerLines - footerLines
	if h < 1 {
		return 1
	}
	return h
}

// clampOffset keeps a scroll offset inside the list.
func clampOffset(offset, rows, viewport int) int {
	limit := rows - viewport
	if limit < 0 {
		limit = 0
	}
	if offset > limit {
		offset = limit
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

func (f frame) lines() []string {
	out := []string{f.tabLine(), f.statusLine(), fmt.Sprintf("    %-24s %-12s %s", "NAME", "STATUS", "ADDED BY")}

	h := listHeight(f.height)
	switch {
	case len(f.rows) == 0 && f.snap.Loading:
		out = append(out, "")
	case len(f.rows) == 0:
		out = append(out, "  No visitors.")
	default:
		start := clampOffset(f.offset, len(f.rows), h)
		end := start + h
		if end > len(f.rows) {
			end = len(f.rows)
		}
		for _, v := range f.rows[start:end] {
			out = append(out, fmt.Sprintf("%s %-24s %-12s %s",
				f.photo(v), truncate(v.Name, 24), v.Status.Label(), v.AddedBy))
		}
	}

	for len(out) < headerLines+h {
		out = append(out, "")
	}
	out = append(out, "1/2/3 view  j/k scroll  r refresh  q quit")

	if f.width > 0 {
		for i, l := range out {
			out[i] = truncate(l, f.width)
		}
	}
	return out
}

func (f frame) tabLine() string {
	tabs := make([]string, len(visitor.Views))
	for i, v := range visitor.Views {
		label := fmt.Sprintf("%d:%s", i+1, v.Label())
		if v == f.view {
			label = "[" + label + "]"
		} else {
			label = " " + label + " "
		}
		tabs[i] = label
	}
	return strings.Join(tabs, " ")
}

func (f frame) statusLine() string {
	var status string
	switch {
	case f.snap.Loading:
		status = "Loading…"
	case f.snap.Err != nil:
		status = "! " + f.snap.Err.Message()
	case !f.snap.LastSuccess.IsZero():
		status = "Updated " + f.snap.LastSuccess.Local().Format("15:04:05")
	default:
		status = "Not loaded"
	}
	if f.snap.InFlight && !f.snap.Loading {
		status += " ↻"
	}
	return fmt.Sprintf("%s | %d of %d | every %s (%s)",
		status, len(f.rows), f.snap.Total, f.interval, f.focus)
}

// photo is a three-column marker: the photo state, or the name's initial
// until one is available.
func (f frame) photo(v visitor.Visitor) string {
	if v.ImageRef == "" || f.image == nil {
		return "(" + visitor.Initial(v.Name) + ")"
	}
	switch f.image(v.ImageRef).State {
	case refresh.ImageResolved:
		return "[✓]"
	case refresh.ImagePending:
		return "[…]"
	default:
		return "(" + visitor.Initial(v.Name) + ")"
	}
}

func drawFrame(w io.Writer, lines []string) error {
	_, err := io.WriteString(w, clearScreen+strings.Join(lines, "\r\n"))
	return err
}
