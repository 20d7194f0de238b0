package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	apiKeyBytes = 32 // 256-bit keys

	// APIKeyPrefix starts every raw key so leaked keys are recognizable.
	APIKeyPrefix = "vd_"
)

// ErrKeyNotFound is returned when deleting a key that does not exist or
// belongs to someone else.
var ErrKeyNotFound = errors.New("key not found")

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages API keys in SQLite.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create generates a new API key owned by email.
// Returns the raw key (shown once to user) and the stored record.
func (s *APIKeyStore) Create(name, email string) (string, *APIKey, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil, fmt.Errorf("email is required")
	}

	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	prefix := raw[:8]
	hash := hashAPIKey(raw)

	result, err := s.db.Exec(
		"INSERT INTO api_keys (name, email, key_prefix, key_hash) VALUES (?, ?, ?, ?)",
		name, email, prefix, hash,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}

	key := &APIKey{
		ID:        id,
		Name:      name,
		Email:     email,
		KeyPrefix: prefix,
		CreatedAt: time.Now().UTC(),
	}

	return raw, key, nil
}

// List returns the keys owned by email (without the raw key).
func (s *APIKeyStore) List(email string) ([]APIKey, error) {
	return s.query(
		"SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys WHERE email = ? ORDER BY created_at DESC, id DESC",
		strings.ToLower(email),
	)
}

// ListAll returns every key on the server.
func (s *APIKeyStore) ListAll() ([]APIKey, error) {
	return s.query("SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys ORDER BY created_at DESC, id DESC")
}

func (s *APIKeyStore) query(q string, args ...interface{}) ([]APIKey, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	keys := make([]APIKey, 0)
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes a key by ID if it is owned by email.
func (s *APIKeyStore) Delete(id int64, email string) error {
	return s.exec("DELETE FROM api_keys WHERE id = ? AND email = ?", id, strings.ToLower(email))
}

// Revoke removes a key by ID regardless of owner. Used by server admin commands.
func (s *APIKeyStore) Revoke(id int64) error {
	return s.exec("DELETE FROM api_keys WHERE id = ?", id)
}

func (s *APIKeyStore) exec(q string, args ...interface{}) error {
	result, err := s.db.Exec(q, args...)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrKeyNotFound
	}

	return nil
}

// Validate checks a raw API key against stored hashes.
// Returns the owner's email if valid (empty if not), and updates last_used_at.
func (s *APIKeyStore) Validate(rawKey string) (string, error) {
	if !strings.HasPrefix(rawKey, APIKeyPrefix) {
		return "", nil
	}
	hash := hashAPIKey(rawKey)

	var email string
	err := s.db.QueryRow("SELECT email FROM api_keys WHERE key_hash = ?", hash).Scan(&email)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("validating key: %w", err)
	}

	if _, err := s.db.Exec(
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ?",
		time.Now().UTC(), hash,
	); err != nil {
		return "", fmt.Errorf("recording key use: %w", err)
	}

	return email, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
