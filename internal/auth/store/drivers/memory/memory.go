// Package memory provides in-process Sessions and Blacklist implementations.
// They back tests and single-node dev setups where Redis isn't running; the
// semantics (TTL expiry, not-found mapping) match the Redis driver.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
)

type sessionEntry struct {
	rec       domain.SessionRecord
	expiresAt time.Time
}

// SessionStore is an in-memory store.Sessions.
type SessionStore struct {
	mu   sync.Mutex
	data map[string]sessionEntry
	now  func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{data: map[string]sessionEntry{}, now: time.Now}
}

// SetClock injects a clock for TTL tests.
func (s *SessionStore) SetClock(now func() time.Time) { s.now = now }

func (s *SessionStore) Put(_ context.Context, id string, rec domain.SessionRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = sessionEntry{rec: rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[id]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.data, id)
		return domain.SessionRecord{}, store.ErrNotFound
	}
	return e.rec, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Len reports live (unexpired) sessions. Test helper.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.data {
		if !s.now().After(e.expiresAt) {
			n++
		}
	}
	return n
}

// BlacklistStore is an in-memory store.Blacklist.
type BlacklistStore struct {
	mu   sync.Mutex
	data map[string]time.Time
	now  func() time.Time

	// Err, when set, is returned by Contains. Lets tests exercise the
	// fail-closed path of the auth gate.
	Err error
}

func NewBlacklistStore() *BlacklistStore {
	return &BlacklistStore{data: map[string]time.Time{}, now: time.Now}
}

func (b *BlacklistStore) Add(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[token] = b.now().Add(ttl)
	return nil
}

func (b *BlacklistStore) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Err != nil {
		return false, b.Err
	}

	exp, ok := b.data[token]
	if !ok || b.now().After(exp) {
		delete(b.data, token)
		return false, nil
	}
	return true, nil
}
