// Package pubsub mirrors heartbeat events across instances through a
// Redis channel. The in-memory store and bus stay authoritative for the
// local process; the bridge only widens fan-out so a stream subscriber
// on one instance sees heartbeats posted to another.
package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/presence"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// envelope is the wire shape on the sync channel. Origin lets an
// instance skip events it published itself.
type envelope struct {
	Origin string                `json:"origin"`
	Event  domain.HeartbeatEvent `json:"event"`
}

// Bridge relays local heartbeats out and remote heartbeats in.
type Bridge struct {
	client     *redis.Client
	channel    string
	store      *presence.Store
	bus        *presence.Bus
	instanceID string
	doneCh     chan struct{}
}

// NewBridge creates a bridge over the given Redis client.
func NewBridge(client *redis.Client, channel string, store *presence.Store, bus *presence.Bus, instanceID string) *Bridge {
	if channel == "" {
		channel = "presence:heartbeats"
	}
	return &Bridge{
		client:     client,
		channel:    channel,
		store:      store,
		bus:        bus,
		instanceID: instanceID,
		doneCh:     make(chan struct{}),
	}
}

// PublishHeartbeat relays a locally recorded heartbeat to other
// instances. Failures are logged, never surfaced to the caller: the
// local write already succeeded.
func (b *Bridge) PublishHeartbeat(ctx context.Context, ev domain.HeartbeatEvent) {
	data, err := json.Marshal(envelope{Origin: b.instanceID, Event: ev})
	if err != nil {
		return
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, ev.Room).Msg("failed to relay heartbeat")
	}
}

// Done returns a channel that is closed when Run exits.
func (b *Bridge) Done() <-chan struct{} { return b.doneCh }

// Run consumes the sync channel until ctx is done, reconnecting on
// receive errors. Must run in its own goroutine.
func (b *Bridge) Run(ctx context.Context) {
	defer close(b.doneCh)
	l := log.L()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := b.consume(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("presence sync subscription error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return
		}
	}
}

func (b *Bridge) consume(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *Bridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("presence sync: invalid payload")
		return
	}
	if env.Origin == b.instanceID || env.Event.Room == "" || env.Event.Username == "" {
		return
	}

	// Remote heartbeats go through the same write-then-publish sequence
	// as local ones so list and stream stay consistent.
	b.store.RecordHeartbeat(env.Event.Room, env.Event.Username)
	b.bus.Publish(env.Event.Room, env.Event)
}
