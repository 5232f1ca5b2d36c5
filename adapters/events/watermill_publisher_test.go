package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/kakao/partnersso/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubSub.Close()
	})

	invalidated, err := pubSub.Subscribe(ctx, TopicInvalidated)
	require.NoError(t, err)
	restored, err := pubSub.Subscribe(ctx, TopicRestored)
	require.NoError(t, err)

	pub := NewWatermillPublisher(pubSub)
	at := time.Date(2025, 9, 18, 0, 0, 0, 0, time.UTC)
	entry := core.InvalidationEntry{AccountID: "B", RefreshToken: "secret", InvalidatedAt: at}

	require.NoError(t, pub.PublishInvalidated(ctx, entry))
	require.NoError(t, pub.PublishRestored(ctx, entry))

	for topic, ch := range map[string]<-chan *message.Message{TopicInvalidated: invalidated, TopicRestored: restored} {
		select {
		case msg := <-ch:
			msg.Ack()
			assert.NotEmpty(t, msg.UUID, topic)
			assert.NotContains(t, string(msg.Payload), "secret", topic)

			var ev InvalidationEvent
			require.NoError(t, json.Unmarshal(msg.Payload, &ev))
			assert.Equal(t, "B", ev.AccountID)
			assert.True(t, at.Equal(ev.InvalidatedAt))
		case <-ctx.Done():
			t.Fatalf("no message on %s", topic)
		}
	}
}
