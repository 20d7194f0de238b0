// Package web provides the visitor-desk HTTP API server.
package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/evcraddock/visitor-desk/internal/auth"
	"github.com/evcraddock/visitor-desk/internal/clock"
	"github.com/evcraddock/visitor-desk/internal/config"
	"github.com/evcraddock/visitor-desk/internal/images"
	"github.com/evcraddock/visitor-desk/internal/logging"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// Server is the visitor-desk API server.
type Server struct {
	visitors *visitor.Repository
	images   images.Store
	apiKeys  *auth.APIKeyStore
	users    *auth.UserStore
	passkeys *passkeyHandlers
	handler  http.Handler
}

// NewServer creates an API server backed by db, storing photos in store.
func NewServer(cfg *config.Config, db *sql.DB, store images.Store) (*Server, error) {
	return newServer(cfg, db, store, clock.Real{})
}

func newServer(cfg *config.Config, db *sql.DB, store images.Store, clk clock.Clock) (*Server, error) {
	s := &Server{
		visitors: visitor.NewRepository(db),
		images:   store,
		apiKeys:  auth.NewAPIKeyStore(db),
		users:    auth.NewUserStore(db, cfg.AdminEmail),
	}

	ph, err := newPasskeyHandlers(cfg.BaseURL, auth.NewPasskeyStore(db), s.apiKeys, s.users, auth.NewCeremonyStore(clk, auth.CeremonyTTL))
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}
	s.passkeys = ph

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)

	mux.HandleFunc("GET /api/visitors", s.apiListVisitors)
	mux.HandleFunc("POST /api/visitors", s.apiAddVisitor)
	mux.HandleFunc("POST /api/visitors/{id}/status", s.apiSetStatus)
	mux.HandleFunc("DELETE /api/visitors/{id}", auth.RequireRole(s.apiDeleteVisitor, auth.RoleAdmin, auth.RoleCompany))

	mux.HandleFunc("POST /api/images", s.apiUploadImage)
	mux.HandleFunc("GET /api/images/{key}", s.apiResolveImage)
	mux.HandleFunc("GET /images/{key}", s.serveImage)

	mux.HandleFunc("GET /api/me", s.apiMe)

	mux.HandleFunc("GET /api/keys", s.apiListKeys)
	mux.HandleFunc("POST /api/keys", s.apiCreateKey)
	mux.HandleFunc("DELETE /api/keys/{id}", s.apiDeleteKey)

	mux.HandleFunc("GET /api/users", auth.RequireRole(s.apiListUsers, auth.RoleAdmin))
	mux.HandleFunc("POST /api/users", auth.RequireRole(s.apiAddUser, auth.RoleAdmin))
	mux.HandleFunc("DELETE /api/users/{id}", auth.RequireRole(s.apiDeleteUser, auth.RoleAdmin))

	mux.HandleFunc("GET /api/passkeys", ph.handleList)
	mux.HandleFunc("DELETE /api/passkeys/{id}", ph.handleDelete)
	mux.HandleFunc("POST /api/passkeys/register/begin", ph.handleBeginRegistration)
	mux.HandleFunc("POST /api/passkeys/register/finish", ph.handleFinishRegistration)
	mux.HandleFunc("POST /passkey/login/begin", ph.handleBeginLogin)
	mux.HandleFunc("POST /passkey/login/finish", ph.handleFinishLogin)

	limiter := auth.NewRateLimiter(clk)
	s.handler = logging.RequestLogger(auth.RequireAPIKey(s.apiKeys, s.users, limiter, mux))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

// caller returns the authenticated user. RequireAPIKey guarantees one on /api/ routes.
func caller(r *http.Request) *auth.User {
	u, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return &auth.User{}
	}
	return u
}
