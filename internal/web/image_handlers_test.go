package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/visitor-desk/internal/images"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func (e *testEnv) upload(t *testing.T, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/images", bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer "+e.keys[testAdmin])
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func TestUploadResolveAndServeImage(t *testing.T) {
	env := setupTestServer(t)

	rec := env.upload(t, "image/png", testPNG)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var up map[string]string
	decode(t, rec, &up)
	key := up["key"]
	if !images.ValidKey(key) {
		t.Fatalf("key = %q, want a storage key", key)
	}

	rec = env.do(t, http.MethodGet, "/api/images/"+key, testAdmin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d", rec.Code)
	}
	var res map[string]string
	decode(t, rec, &res)
	if res["uri"] != "http://localhost:8080/images/"+key {
		t.Errorf("uri = %q", res["uri"])
	}

	// Blob route is public; the key is the capability.
	rec = env.do(t, http.MethodGet, "/images/"+key, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), testPNG) {
		t.Error("served bytes differ from upload")
	}
}

func TestResolveUnknownImage(t *testing.T) {
	env := setupTestServer(t)

	for _, key := range []string{images.NewKey(), "not-a-key"} {
		rec := env.do(t, http.MethodGet, "/api/images/"+key, testAdmin, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("resolve %q status = %d, want 404", key, rec.Code)
		}
		rec = env.do(t, http.MethodGet, "/images/"+key, "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("serve %q status = %d, want 404", key, rec.Code)
		}
	}
}

func TestUploadRejected(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        int
	}{
		{"text", "text/plain", []byte("hello"), http.StatusUnsupportedMediaType},
		{"empty", "image/png", nil, http.StatusUnsupportedMediaType},
		{"too large", "image/png", append(append([]byte{}, testPNG...), make([]byte, images.MaxSize)...), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.upload(t, tt.contentType, tt.data)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, strings.TrimSpace(rec.Body.String()))
			}
		})
	}
}
