package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/visitor-desk/internal/auth"
)

type apiKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key            string         `json:"key"` // raw key, shown once
	APIKeyResponse apiKeyResponse `json:"api_key"`
}

func toAPIKeyResponse(k *auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format(time.RFC3339),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(time.RFC3339)
		resp.LastUsedAt = &s
	}
	return resp
}

// apiCreateKey generates a new API key owned by the caller.
func (s *Server) apiCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := s.apiKeys.Create(name, caller(r).Email)
	if err != nil {
		slog.Error("creating api key", "err", err)
		apiError(w, "creating key failed", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKeyResponse: toAPIKeyResponse(key)}, http.StatusCreated)
}

// apiListKeys returns the caller's API keys (without raw keys).
func (s *Server) apiListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.apiKeys.List(caller(r).Email)
	if err != nil {
		slog.Error("listing api keys", "err", err)
		apiError(w, "listing keys failed", http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, len(keys))
	for i := range keys {
		resp[i] = toAPIKeyResponse(&keys[i])
	}
	apiJSON(w, resp, http.StatusOK)
}

// apiDeleteKey revokes one of the caller's API keys.
func (s *Server) apiDeleteKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid key ID")
	if !ok {
		return
	}

	err := s.apiKeys.Delete(id, caller(r).Email)
	if errors.Is(err, auth.ErrKeyNotFound) {
		apiError(w, "key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("deleting api key", "err", err)
		apiError(w, "deleting key failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
