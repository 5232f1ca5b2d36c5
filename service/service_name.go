package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

const (
	// SeedService is the well-known store entry holding the obfuscated seed
	SeedService = "com.kakao.sdk.sso.key"

	obfuscationKey byte = 0xAF
)

// ServiceNameResolver derives the store key the Kakao Talk agent wrote its
// account records under. The seed is only obfuscated, not encrypted; the XOR
// transform is part of the on-store format shared with the agent.
type ServiceNameResolver struct {
	store ports.SecureStore
	phase core.Phase

	mu    sync.Mutex
	names map[string]string // by access group
}

func NewServiceNameResolver(store ports.SecureStore, phase core.Phase) *ServiceNameResolver {
	return &ServiceNameResolver{
		store: store,
		phase: phase,
		names: make(map[string]string),
	}
}

// Resolve returns the service name for accessGroup, or core.ErrItemNotFound
// when no seed has been written. Store failures are returned as is.
func (r *ServiceNameResolver) Resolve(ctx context.Context, accessGroup string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[accessGroup]; ok {
		return name, nil
	}

	raw, err := r.store.Get(ctx, SeedService, accessGroup)
	if err != nil {
		if errors.Is(err, core.ErrItemNotFound) {
			return "", core.ErrItemNotFound
		}
		return "", fmt.Errorf("reading service seed: %w", err)
	}

	seed := Deobfuscate(raw)
	if seed == "" || !utf8.ValidString(seed) {
		return "", core.ErrItemNotFound
	}

	name := ServiceName(seed, r.phase)
	r.names[accessGroup] = name
	return name, nil
}

// ServiceName qualifies seed with the phase outside production so builds of
// different phases never share account records.
func ServiceName(seed string, phase core.Phase) string {
	if !phase.IsProduction() {
		seed = seed + "." + string(phase)
	}
	return base64.StdEncoding.EncodeToString([]byte(seed))
}

func Deobfuscate(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ obfuscationKey
	}
	return string(out)
}

func Obfuscate(seed string) []byte {
	out := []byte(seed)
	for i := range out {
		out[i] ^= obfuscationKey
	}
	return out
}
