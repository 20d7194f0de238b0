package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	SetupWriter(&buf, true)
	return &buf
}

func TestSetupWriterDevMode(t *testing.T) {
	buf := captureDefault(t)

	slog.Debug("test debug")
	slog.Info("test info")

	if !bytes.Contains(buf.Bytes(), []byte("test debug")) {
		t.Error("expected debug message visible in dev mode")
	}
	if !bytes.Contains(buf.Bytes(), []byte("test info")) {
		t.Error("expected info message visible in dev mode")
	}
}

func TestSetupWriterProdMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	SetupWriter(&buf, false)

	slog.Debug("hidden")
	slog.Info("visible", "visitors", 3)

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Error("debug should be filtered in prod mode")
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "visible" {
		t.Errorf("msg = %v, want visible", entry["msg"])
	}
}

func TestDiscard(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Discard()
	slog.Error("goes nowhere")
}

func TestRequestLogger(t *testing.T) {
	buf := captureDefault(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestLogger(inner)

	req := httptest.NewRequest("GET", "/api/visitors", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if buf.Len() == 0 {
		t.Fatal("expected log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("GET")) {
		t.Error("expected method in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("/api/visitors")) {
		t.Error("expected path in log")
	}
}

func TestRequestLoggerSkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/images/0b6b3c1e-8a6f-4d8e-9a53-0e3c3f1f2a11"} {
		t.Run(path, func(t *testing.T) {
			buf := captureDefault(t)

			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s", path)
			}
		})
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureDefault(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := RequestLogger(inner)

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !bytes.Contains(buf.Bytes(), []byte("404")) {
		t.Error("expected 404 status in log")
	}
	if !bytes.Contains(buf.Bytes(), []byte("WARN")) {
		t.Error("expected 4xx logged at warn level")
	}
}

func TestRequestLoggerListPollsAtDebug(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	SetupWriter(&buf, false)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}
		_, _ = w.Write([]byte(`{"visitors":[]}`))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/visitors", nil))
	if buf.Len() > 0 {
		t.Fatalf("list poll logged at info: %q", buf.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/visitors", nil))
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["bytes"] != float64(len(`{"visitors":[]}`)) {
		t.Errorf("bytes = %v, want %d", entry["bytes"], len(`{"visitors":[]}`))
	}
}

func TestRequestLoggerFailedPollLogged(t *testing.T) {
	buf := captureDefault(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/visitors", nil))

	if !bytes.Contains(buf.Bytes(), []byte("WARN")) {
		t.Errorf("rejected poll not logged at warn: %q", buf.String())
	}
}
