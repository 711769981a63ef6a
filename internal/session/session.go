// Package session issues and resolves the opaque session tokens that
// namespace all collection access. A session is bootstrapped
// anonymously; the caller only ever sees the token, never the owner id
// behind it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrUnknownSession means the token was never issued or has expired.
var ErrUnknownSession = errors.New("unknown or expired session")

const keyPrefix = "session:"

// Store keeps token -> owner mappings in Redis with a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Anonymous creates a fresh session with a brand new owner namespace
// and returns its token.
func (s *Store) Anonymous(ctx context.Context) (string, error) {
	token := uuid.New().String()
	owner := uuid.New().String()

	if err := s.rdb.Set(ctx, keyPrefix+token, owner, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve maps a token to its owner namespace.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	owner, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownSession
	}
	if err != nil {
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return owner, nil
}
