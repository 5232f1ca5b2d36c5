package ports

import "context"

// SecureStore is the access-group scoped secure storage shared between
// cooperating apps on the same device. Another process may write it at any
// time; callers must treat every read as possibly stale.
//
// Get returns core.ErrItemNotFound when no item exists and core.ErrAccessDenied
// when the caller is not permitted to read the access group.
type SecureStore interface {
	Get(ctx context.Context, service, accessGroup string) ([]byte, error)
	Put(ctx context.Context, service, accessGroup string, data []byte) error
}
