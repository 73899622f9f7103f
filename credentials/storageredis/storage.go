// Package storageredis persists the bearer token in Redis, for kiosk and
// shared-host deployments where the client process has no stable disk.
package storageredis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/crewdock/go-crewdock-client/credentials"
)

var _ credentials.Storage = (*Storage)(nil)

type Storage struct {
	client *redis.Client
	key    string
}

// New creates a redis storage writing the token under the given key.
func New(addr, password, key string) *Storage {
	return &Storage{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		key: key,
	}
}

// NewWithClient wraps an existing client, primarily for tests.
func NewWithClient(client *redis.Client, key string) *Storage {
	return &Storage{client: client, key: key}
}

func (s *Storage) Read(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[Storage.Read] redis get")
	}
	return token, true, nil
}

func (s *Storage) Write(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return errors.Wrap(err, "[Storage.Write] redis set")
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Wrap(err, "[Storage.Delete] redis del")
	}
	return nil
}

// Close releases the underlying client connection.
func (s *Storage) Close() error {
	return s.client.Close()
}
