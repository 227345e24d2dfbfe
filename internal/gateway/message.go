package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nudgebot/nudge/pkg/remindstore"
)

// Inbound is one chat message relayed into the service. The relay publishes
// these as JSON on the keyspace's inbound channel.
type Inbound struct {
	Channel    string `json:"channel"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	AuthorNick string `json:"author_nick,omitempty"`
	Origin     string `json:"origin,omitempty"`
	Content    string `json:"content"`
}

// Subscription represents an active Pub/Sub subscription to inbound messages.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Inbound
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of inbound messages.
func (s *Subscription) Events() <-chan *Inbound {
	return s.events
}

// Errors returns the channel of subscription errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeInbound subscribes to the keyspace's inbound message channel.
// Caller must call subscription.Close() when done. Context cancellation also
// stops the subscription.
//
// Messages are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once, so messages arriving while the service is down are lost.
func SubscribeInbound(ctx context.Context, store *remindstore.Client) (*Subscription, error) {
	channel := store.Keys().InboundChannel()
	pubsub := store.RedisClient().Subscribe(ctx, channel)

	eventsChan := make(chan *Inbound, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var inbound Inbound
				if err := json.Unmarshal([]byte(msg.Payload), &inbound); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal inbound message: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &inbound:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
