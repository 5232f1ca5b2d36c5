package ports

import (
	"context"

	"github.com/kakao/partnersso/core"
)

// EventPublisher notifies other components about invalidation state changes
type EventPublisher interface {
	PublishInvalidated(ctx context.Context, entry core.InvalidationEntry) error
	PublishRestored(ctx context.Context, entry core.InvalidationEntry) error
}
