// Package notify carries user-facing output out of the service. Deliveries
// and command replies are published as JSON envelopes on per-channel Redis
// Pub/Sub topics; a chat-facing relay subscribed to those topics renders
// them. The service itself never speaks a chat protocol.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nudgebot/nudge/pkg/remindstore"
)

// Embed colors, mirroring the palette the chat relay renders.
const (
	ColorInfo    = 0x00ff00
	ColorAccent  = 0x0000ff
	ColorWarning = 0xffa500
	ColorError   = 0xff0000
)

// Embed is the rich body of an outbound message.
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Message is the envelope published for the relay. Mention, when set, is a
// user id the relay should address before the embed. Text is an optional
// plain line rendered above the embed.
type Message struct {
	Channel string `json:"channel"`
	Mention string `json:"mention,omitempty"`
	Text    string `json:"text,omitempty"`
	Embed   Embed  `json:"embed"`
}

// Notifier sends one outbound message. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Publisher is the Redis-backed Notifier. Messages go to the keyspace's
// outbound channel for the message's target channel. Delivery is
// at-most-once: with no subscriber attached the message is dropped by Redis,
// which is the desired behavior while the relay is down.
type Publisher struct {
	rdb  *redis.Client
	keys remindstore.Keyspace
}

// NewPublisher returns a Publisher sharing the given store's connection.
func NewPublisher(store *remindstore.Client) *Publisher {
	return &Publisher{rdb: store.RedisClient(), keys: store.Keys()}
}

func (p *Publisher) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound message: %w", err)
	}
	topic := p.keys.OutboundChannel(msg.Channel)
	if err := p.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}
