package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
	"github.com/rs/zerolog"
)

// InvalidationKey is the preferences key of the persisted invalidation cache
const InvalidationKey = "com.kakao.sdk.sso.invalidate"

type invalidElements struct {
	Elements []invalidElement `json:"elements"`
}

type invalidElement struct {
	UserID        string    `json:"userId"`
	RefreshToken  string    `json:"refreshToken"`
	InvalidatedAt time.Time `json:"invalidatedAt"`
}

// InvalidationStore persists the invalidation cache in local preferences.
// Neither direction ever fails: invalidation is best-effort anti-replay and
// must not block login.
type InvalidationStore struct {
	prefs  ports.Preferences
	logger zerolog.Logger
}

func NewInvalidationStore(prefs ports.Preferences, logger zerolog.Logger) *InvalidationStore {
	return &InvalidationStore{prefs: prefs, logger: logger}
}

// Load returns the persisted cache, or an empty one when nothing usable is stored
func (s *InvalidationStore) Load(ctx context.Context) *core.InvalidationCache {
	elements, err := loadCodable[invalidElements](ctx, s.prefs, InvalidationKey)
	if err != nil {
		if !errors.Is(err, core.ErrItemNotFound) {
			s.logger.Warn().Err(err).Msg("discarding unreadable invalidation cache")
		}
		return core.NewInvalidationCache()
	}

	entries := make([]core.InvalidationEntry, 0, len(elements.Elements))
	for _, e := range elements.Elements {
		entries = append(entries, core.InvalidationEntry{
			AccountID:     e.UserID,
			RefreshToken:  e.RefreshToken,
			InvalidatedAt: e.InvalidatedAt,
		})
	}
	return core.NewInvalidationCache(entries...)
}

// Save writes the cache; failures are logged only
func (s *InvalidationStore) Save(ctx context.Context, cache *core.InvalidationCache) {
	entries := cache.Entries()
	elements := invalidElements{Elements: make([]invalidElement, 0, len(entries))}
	for _, e := range entries {
		elements.Elements = append(elements.Elements, invalidElement{
			UserID:        e.AccountID,
			RefreshToken:  e.RefreshToken,
			InvalidatedAt: e.InvalidatedAt,
		})
	}

	if err := saveCodable(ctx, s.prefs, InvalidationKey, elements); err != nil {
		s.logger.Error().Err(err).Int("entries", len(entries)).Msg("failed to persist invalidation cache")
	}
}

func loadCodable[T any](ctx context.Context, prefs ports.Preferences, key string) (*T, error) {
	data, err := prefs.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	return &v, nil
}

func saveCodable(ctx context.Context, prefs ports.Preferences, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return prefs.Save(ctx, key, data)
}
