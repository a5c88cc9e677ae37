package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultChannel carries notifications between service instances.
const DefaultChannel = "lms:notifications"

// Deliverer receives notifications published by any instance.
type Deliverer interface {
	Deliver(n domain.Notification)
}

// Broker fans notifications out over Redis pub/sub so websocket clients connected
// to any instance receive them.
type Broker struct {
	client  *redis.Client
	channel string
}

func NewBroker(client *redis.Client, channel string) *Broker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broker{client: client, channel: channel}
}

func (b *Broker) Publish(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Run forwards every message on the channel to local until ctx is done. The
// subscription is confirmed before ready is closed.
func (b *Broker) Run(ctx context.Context, local Deliverer, ready chan<- struct{}) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				log.Warn().Err(err).Msg("dropping undecodable notification")
				continue
			}
			local.Deliver(n)
		}
	}
}
