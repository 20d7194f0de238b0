// Package logging provides structured logging setup for visitor-desk.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the default slog logger on stdout.
// Dev mode uses human-readable text; prod uses JSON.
func Setup(devMode bool) {
	SetupWriter(os.Stdout, devMode)
}

// SetupWriter initializes the default slog logger on w.
func SetupWriter(w io.Writer, devMode bool) {
	slog.SetDefault(slog.New(NewHandler(w, devMode)))
}

// NewHandler returns the handler Setup would install.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// Discard silences the default logger. Interactive commands use it so log
// lines do not tear the terminal.
func Discard() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
