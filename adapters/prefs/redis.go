package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
	"github.com/redis/go-redis/v9"
)

// RedisPreferences stores preferences in Redis, namespaced per installation
type RedisPreferences struct {
	client *redis.Client
	prefix string
}

var _ ports.Preferences = (*RedisPreferences)(nil)

// NewRedisPreferences creates preferences under "partnersso:prefs:<installation>:"
func NewRedisPreferences(client *redis.Client, installation string) *RedisPreferences {
	return &RedisPreferences{
		client: client,
		prefix: "partnersso:prefs:" + installation + ":",
	}
}

func (p *RedisPreferences) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load preference %q: %w", key, err)
	}
	return data, nil
}

func (p *RedisPreferences) Save(ctx context.Context, key string, data []byte) error {
	if err := p.client.Set(ctx, p.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save preference %q: %w", key, err)
	}
	return nil
}
