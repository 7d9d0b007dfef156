package flow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/cache"
)

var ErrSessionNotFound = errors.New("booking session not found or expired")

// Store keeps sessions between steps. Sessions are ephemeral: a TTL handles
// abandonment, and nothing committed ever requires rolling one back.
type Store interface {
	Save(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

const sessionKeyPrefix = "flow:session:"

// CacheStore persists sessions as JSON in the cache layer (Redis in
// production, in-memory in tests).
type CacheStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCacheStore(c cache.Cache, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CacheStore{cache: c, ttl: ttl}
}

func (s *CacheStore) Save(ctx context.Context, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionKeyPrefix+session.ID, payload, s.ttl)
}

func (s *CacheStore) Get(ctx context.Context, id string) (Session, error) {
	payload, ok, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKeyPrefix+id)
}
