package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/evcraddock/visitor-desk/internal/auth"
)

// Authorized user management. Routes are wrapped in RequireRole(admin).

func (s *Server) apiListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List()
	if err != nil {
		apiError(w, "listing users: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = make([]*auth.User, 0)
	}
	apiJSON(w, users, http.StatusOK)
}

func (s *Server) apiAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string    `json:"email"`
		Name  string    `json:"name"`
		Role  auth.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		apiError(w, "email is required", http.StatusBadRequest)
		return
	}
	if req.Role != "" && !req.Role.IsValid() {
		apiError(w, "invalid role: "+string(req.Role), http.StatusBadRequest)
		return
	}

	user, err := s.users.Add(req.Email, req.Name, req.Role)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			apiError(w, err.Error(), http.StatusConflict)
			return
		}
		apiError(w, "adding user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apiJSON(w, user, http.StatusCreated)
}

func (s *Server) apiDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid user ID")
	if !ok {
		return
	}

	if err := s.users.Delete(id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			apiError(w, "user not found", http.StatusNotFound)
			return
		}
		apiError(w, "deleting user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "deleted": true}, http.StatusOK)
}
