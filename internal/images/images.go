// Package images stores visitor photos and turns their storage keys into
// displayable URIs.
package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/evcraddock/visitor-desk/internal/config"
)

// MaxSize is the largest accepted image, in bytes.
const MaxSize = 5 << 20

var (
	// ErrNotFound is returned for an unknown storage key.
	ErrNotFound = errors.New("image not found")

	// ErrUnsupportedType is returned for content that is not an accepted image format.
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrTooLarge is returned for images over MaxSize.
	ErrTooLarge = errors.New("image too large")

	// ErrEmpty is returned for a zero-length upload.
	ErrEmpty = errors.New("image is empty")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store persists images and resolves their keys.
type Store interface {
	// Put stores data and returns its new storage key.
	Put(ctx context.Context, contentType string, data []byte) (string, error)
	// URI returns a displayable URI for key, or ErrNotFound.
	URI(ctx context.Context, key string) (string, error)
}

// Image is a stored image served by the server itself.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

// Getter is implemented by stores that serve image bytes directly.
type Getter interface {
	Get(ctx context.Context, key string) (*Image, error)
}

// NewKey returns a fresh, unguessable storage key.
func NewKey() string {
	return uuid.NewString()
}

// ValidKey reports whether key has the shape of a storage key.
func ValidKey(key string) bool {
	_, err := uuid.Parse(key)
	return err == nil
}

// Validate checks an upload before it is stored. It returns the content
// type to record, sniffing it when contentType is empty or generic.
func Validate(contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), MaxSize)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return contentType, nil
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg *config.Config, db *sql.DB) (Store, error) {
	switch cfg.Images.Backend {
	case config.BackendS3:
		return NewS3Store(ctx, cfg.Images)
	case config.BackendSQLite, "":
		return NewSQLiteStore(db, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown image backend: %q", cfg.Images.Backend)
	}
}
