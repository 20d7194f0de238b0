package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

const testKey = "vd_validkey1234567890abc"

// fakeAPI is an in-memory stand-in for the visitor-desk server.
type fakeAPI struct {
	mu       sync.Mutex
	visitors []visitor.Visitor
	images   map[string]string // key -> uri
	uploads  []string          // content types received
	nextID   int64
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		visitors: []visitor.Visitor{
			{ID: 2, Name: "Jane Doe", Phone: "555-0100", Status: visitor.Pending, ImageRef: "img-2", AddedBy: "amy@example.com", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
			{ID: 1, Name: "John Roe", Status: visitor.CheckedIn, AddedBy: "bob@example.com", CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		},
		images: map[string]string{"img-2": "https://cdn.example.com/img-2.jpg"},
		nextID: 3,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"email": "amy@example.com", "name": "Amy", "role": "employee"})
	})
	mux.HandleFunc("GET /api/visitors", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"visitors": f.visitors, "total": len(f.visitors)})
	})
	mux.HandleFunc("POST /api/visitors", func(w http.ResponseWriter, r *http.Request) {
		var nv visitor.NewVisitor
		if err := json.NewDecoder(r.Body).Decode(&nv); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		f.mu.Lock()
		v := visitor.Visitor{ID: f.nextID, Name: nv.Name, Phone: nv.Phone, Purpose: nv.Purpose, ImageRef: nv.ImageRef, Status: visitor.Pending, AddedBy: "amy@example.com"}
		f.nextID++
		f.visitors = append([]visitor.Visitor{v}, f.visitors...)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, v)
	})
	mux.HandleFunc("POST /api/visitors/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status visitor.Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.visitors {
			if r.PathValue("id") == itoa(f.visitors[i].ID) {
				f.visitors[i].Status = body.Status
				writeJSON(w, http.StatusOK, f.visitors[i])
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "visitor not found"})
	})
	mux.HandleFunc("DELETE /api/visitors/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	})
	mux.HandleFunc("POST /api/images", func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read"})
			return
		}
		f.mu.Lock()
		f.uploads = append(f.uploads, r.Header.Get("Content-Type"))
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]string{"key": "0b6b3c1e-8a6f-4d8e-9a53-0e3c3f1f2a11"})
	})
	mux.HandleFunc("GET /api/images/{key}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		uri, ok := f.images[r.PathValue("key")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"uri": uri})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && r.Header.Get("Authorization") != "Bearer "+testKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("VD_SERVER_URL", srv.URL)
	t.Setenv("VD_API_KEY", testKey)
	return f, srv
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
