package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// SessionStore keeps session records in Redis, TTL-managed by the server.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Put(ctx context.Context, id string, rec domain.SessionRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionPrefix+id, payload, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.SessionRecord, error) {
	payload, err := s.rdb.Get(ctx, sessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SessionRecord{}, store.ErrNotFound
		}
		return domain.SessionRecord{}, err
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.SessionRecord{}, err
	}
	return rec, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionPrefix+id).Err()
}
