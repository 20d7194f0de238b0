package logging

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// isListPoll reports whether r is a watch client re-reading the visitor
// list. Every open watch screen sends one every few seconds.
func isListPoll(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Path == "/api/visitors"
}

// RequestLogger is middleware that logs HTTP requests. Successful list
// polls are logged at debug so they do not drown out visitor changes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Photo bytes and health checks are fetched constantly.
		if strings.HasPrefix(r.URL.Path, "/images/") || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		level := slog.LevelInfo
		switch {
		case rw.status >= 500:
			level = slog.LevelError
		case rw.status >= 400:
			level = slog.LevelWarn
		case isListPoll(r):
			level = slog.LevelDebug
		}

		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"bytes", rw.bytes,
			"duration", duration.String(),
			"ip", r.RemoteAddr,
		)
	})
}
