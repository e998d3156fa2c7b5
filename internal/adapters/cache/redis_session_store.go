package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storelens/multicurrency/internal/apperrors"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

const (
	sessionKeyPrefix = "session_currency:"
	sessionTTL       = 30 * 24 * time.Hour
)

type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates the anonymous-visitor selection store.
func NewRedisSessionStore(client *redis.Client) portsrepo.SessionStore {
	return &RedisSessionStore{client: client}
}

// GetSelectedCurrency returns the session's stored currency selection.
func (s *RedisSessionStore) GetSelectedCurrency(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to read session currency: %w", err)
	}
	return code, nil
}

// SetSelectedCurrency stores the selection, refreshing the session TTL.
// Last write wins; concurrent overwrites are an accepted race.
func (s *RedisSessionStore) SetSelectedCurrency(ctx context.Context, sessionID, code string) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+sessionID, code, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to write session currency: %w", err)
	}
	return nil
}
