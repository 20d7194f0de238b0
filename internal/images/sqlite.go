package images

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteStore keeps image bytes in the server database and serves them
// from /images/{key}.
type SQLiteStore struct {
	db      *sql.DB
	baseURL string
}

// NewSQLiteStore creates a store whose URIs are rooted at baseURL.
func NewSQLiteStore(db *sql.DB, baseURL string) *SQLiteStore {
	return &SQLiteStore{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put stores an image.
func (s *SQLiteStore) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	contentType, err := Validate(contentType, data)
	if err != nil {
		return "", err
	}

	key := NewKey()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO images (key, content_type, data) VALUES (?, ?, ?)",
		key, contentType, data,
	); err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return key, nil
}

// URI returns the public URL of a stored image.
func (s *SQLiteStore) URI(ctx context.Context, key string) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM images WHERE key = ?", key).Scan(&exists)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up image: %w", err)
	}
	return s.baseURL + "/images/" + key, nil
}

// Get returns the stored image.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Image, error) {
	img := Image{Key: key}
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data FROM images WHERE key = ?", key,
	).Scan(&img.ContentType, &img.Data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return &img, nil
}

// Delete removes a stored image.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
