package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

type listVisitorsResponse struct {
	Visitors []visitor.Visitor `json:"visitors"`
	Total    int               `json:"total"`
}

// apiListVisitors returns the complete visitor list, newest first.
func (s *Server) apiListVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := s.visitors.List()
	if err != nil {
		slog.Error("listing visitors", "err", err)
		apiError(w, "listing visitors failed", http.StatusInternalServerError)
		return
	}
	if visitors == nil {
		visitors = make([]visitor.Visitor, 0)
	}

	apiJSON(w, listVisitorsResponse{Visitors: visitors, Total: len(visitors)}, http.StatusOK)
}

// apiAddVisitor registers a visitor on behalf of the caller.
func (s *Server) apiAddVisitor(w http.ResponseWriter, r *http.Request) {
	var req visitor.NewVisitor
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiError(w, "name is required", http.StatusBadRequest)
		return
	}

	v, err := s.visitors.Add(req, caller(r).Email)
	if err != nil {
		slog.Error("adding visitor", "err", err)
		apiError(w, "adding visitor failed", http.StatusInternalServerError)
		return
	}

	apiJSON(w, v, http.StatusCreated)
}

// apiSetStatus moves a visitor to a new status.
func (s *Server) apiSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid visitor ID")
	if !ok {
		return
	}

	var req struct {
		Status visitor.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if !req.Status.IsValid() {
		apiError(w, "invalid status: "+string(req.Status), http.StatusBadRequest)
		return
	}

	v, err := s.visitors.UpdateStatus(id, req.Status)
	if errors.Is(err, visitor.ErrNotFound) {
		apiError(w, "visitor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("updating visitor status", "id", id, "err", err)
		apiError(w, "updating status failed", http.StatusInternalServerError)
		return
	}

	slog.Info("visitor status changed", "id", id, "status", v.Status, "by", caller(r).Email)
	apiJSON(w, v, http.StatusOK)
}

// apiDeleteVisitor removes a visitor.
func (s *Server) apiDeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invalid visitor ID")
	if !ok {
		return
	}

	err := s.visitors.Delete(id)
	if errors.Is(err, visitor.ErrNotFound) {
		apiError(w, "visitor not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("deleting visitor", "id", id, "err", err)
		apiError(w, "deleting visitor failed", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "removed": true}, http.StatusOK)
}

// apiMe returns the caller's identity.
func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	apiJSON(w, map[string]string{
		"email": u.Email,
		"name":  u.Name,
		"role":  string(u.Role),
	}, http.StatusOK)
}

func pathID(w http.ResponseWriter, r *http.Request, msg string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		apiError(w, msg, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
