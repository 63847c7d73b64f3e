package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broker publishes events through a Redis channel so every API instance
// re-broadcasts them on its local hub. With a nil client it publishes
// straight to the hub.
type Broker struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

// NewBroker constructs a broker bound to channel.
func NewBroker(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == "" {
		channel = "pdi:events"
	}
	return &Broker{client: client, channel: channel, hub: hub, logger: logger}
}

// Publish sends evt to all instances.
func (b *Broker) Publish(ctx context.Context, evt Event) error {
	if b.client == nil {
		b.hub.Publish(evt)
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", b.channel, err)
	}
	return nil
}

// Run relays Redis messages to the local hub until ctx is cancelled. It
// returns immediately when Redis is not configured.
func (b *Broker) Run(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so publishes issued after Run
	// starts are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("event relay subscribed", zap.String("channel", b.channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.logger.Warn("discarding malformed event", zap.Error(err))
				continue
			}
			b.hub.Publish(evt)
		}
	}
}
