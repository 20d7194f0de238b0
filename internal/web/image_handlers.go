package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/visitor-desk/internal/images"
)

// apiUploadImage stores the raw request body as an image.
func (s *Server) apiUploadImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, images.MaxSize+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiError(w, images.ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		apiError(w, "reading body failed", http.StatusBadRequest)
		return
	}

	key, err := s.images.Put(r.Context(), r.Header.Get("Content-Type"), data)
	switch {
	case errors.Is(err, images.ErrTooLarge):
		apiError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	case errors.Is(err, images.ErrUnsupportedType), errors.Is(err, images.ErrEmpty):
		apiError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	case err != nil:
		slog.Error("storing image", "err", err)
		apiError(w, "storing image failed", http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"key": key}, http.StatusCreated)
}

// apiResolveImage turns a storage key into a displayable URI.
func (s *Server) apiResolveImage(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !images.ValidKey(key) {
		apiError(w, "image not found", http.StatusNotFound)
		return
	}

	uri, err := s.images.URI(r.Context(), key)
	if errors.Is(err, images.ErrNotFound) {
		apiError(w, "image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("resolving image", "key", key, "err", err)
		apiError(w, "resolving image failed", http.StatusBadGateway)
		return
	}

	apiJSON(w, map[string]string{"uri": uri}, http.StatusOK)
}

// serveImage writes image bytes for stores that keep them locally.
func (s *Server) serveImage(w http.ResponseWriter, r *http.Request) {
	getter, ok := s.images.(images.Getter)
	key := r.PathValue("key")
	if !ok || !images.ValidKey(key) {
		http.NotFound(w, r)
		return
	}

	img, err := getter.Get(r.Context(), key)
	if errors.Is(err, images.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("reading image", "key", key, "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	if _, err := w.Write(img.Data); err != nil {
		slog.Warn("writing image", "key", key, "err", err)
	}
}
