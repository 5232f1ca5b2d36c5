package securestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a SecureStore shared through Redis. Cooperating processes
// on one host point at the same instance; Redis ACLs scope who may read an
// access group.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ports.SecureStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis secure store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "partnersso:securestore:",
	}
}

func (s *RedisStore) key(service, accessGroup string) string {
	return s.prefix + accessGroup + ":" + service
}

// Get retrieves an item from Redis
func (s *RedisStore) Get(ctx context.Context, service, accessGroup string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(service, accessGroup)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrItemNotFound
		}
		return nil, classify("get", accessGroup, err)
	}
	return data, nil
}

// Put stores an item without expiry
func (s *RedisStore) Put(ctx context.Context, service, accessGroup string, data []byte) error {
	if err := s.client.Set(ctx, s.key(service, accessGroup), data, 0).Err(); err != nil {
		return classify("put", accessGroup, err)
	}
	return nil
}

// classify maps Redis permission failures to core.ErrAccessDenied
func classify(op, accessGroup string, err error) error {
	msg := err.Error()
	for _, prefix := range []string{"NOPERM", "NOAUTH", "WRONGPASS"} {
		if strings.HasPrefix(msg, prefix) {
			return fmt.Errorf("failed to %s item in %q: %w: %w", op, accessGroup, core.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("failed to %s item in %q: %w", op, accessGroup, err)
}
