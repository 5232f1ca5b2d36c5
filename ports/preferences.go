package ports

import "context"

// Preferences is ordinary (non-secure) local key/value storage
type Preferences interface {
	// Load returns core.ErrItemNotFound when the key is absent
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
