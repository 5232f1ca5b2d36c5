package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

const (
	TopicInvalidated = "partnersso.invalidated"
	TopicRestored    = "partnersso.restored"
)

// InvalidationEvent describes a change of an account's invalidation state.
// The refresh token itself is never published.
type InvalidationEvent struct {
	AccountID     string    `json:"account_id"`
	InvalidatedAt time.Time `json:"invalidated_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishInvalidated announces that an account's refresh token was rejected
func (p *WatermillPublisher) PublishInvalidated(ctx context.Context, entry core.InvalidationEntry) error {
	return p.publish(ctx, TopicInvalidated, entry)
}

// PublishRestored announces that an invalidated account got a new refresh token
func (p *WatermillPublisher) PublishRestored(ctx context.Context, entry core.InvalidationEntry) error {
	return p.publish(ctx, TopicRestored, entry)
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, entry core.InvalidationEntry) error {
	payload, err := json.Marshal(InvalidationEvent{
		AccountID:     entry.AccountID,
		InvalidatedAt: entry.InvalidatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
