package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/visitor-desk/internal/clock"
)

// CeremonyTTL bounds how long a passkey ceremony may take to finish.
const CeremonyTTL = 5 * time.Minute

// ErrCeremonyNotFound is returned for an unknown, used or expired ceremony.
var ErrCeremonyNotFound = errors.New("no passkey ceremony in progress")

type ceremony struct {
	email   string
	data    *webauthn.SessionData
	expires time.Time
}

// CeremonyStore holds WebAuthn session data between the begin and finish
// calls of a ceremony. Each ceremony is identified by a random ID handed to
// the client and can be finished once.
type CeremonyStore struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	pending map[string]ceremony
}

// NewCeremonyStore creates an in-memory ceremony store.
func NewCeremonyStore(clk clock.Clock, ttl time.Duration) *CeremonyStore {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = CeremonyTTL
	}
	return &CeremonyStore{
		clock:   clk,
		ttl:     ttl,
		pending: make(map[string]ceremony),
	}
}

// Put records session data for email (empty for discoverable login) and
// returns the ceremony ID.
func (s *CeremonyStore) Put(email string, data *webauthn.SessionData) (string, error) {
	id, err := generateCeremonyID()
	if err != nil {
		return "", fmt.Errorf("generating ceremony ID: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.pending[id] = ceremony{
		email:   email,
		data:    data,
		expires: s.clock.Now().Add(s.ttl),
	}
	return id, nil
}

// Take removes and returns the ceremony with the given ID.
func (s *CeremonyStore) Take(id string) (*webauthn.SessionData, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[id]
	if !ok {
		return nil, "", ErrCeremonyNotFound
	}
	delete(s.pending, id)

	if s.clock.Now().After(c.expires) {
		return nil, "", ErrCeremonyNotFound
	}
	return c.data, c.email, nil
}

// Len returns the number of unexpired ceremonies.
func (s *CeremonyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.pending)
}

func (s *CeremonyStore) pruneLocked() {
	now := s.clock.Now()
	for id, c := range s.pending {
		if now.After(c.expires) {
			delete(s.pending, id)
		}
	}
}

func generateCeremonyID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
