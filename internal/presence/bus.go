package presence

import (
	"sync"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// Sink receives heartbeat events for a room it subscribed to.
// Sinks must be fast; fan-out is synchronous.
type Sink func(domain.HeartbeatEvent)

// Bus fans heartbeat events out to the current subscribers of a room.
// Subscribers are tracked by opaque handles, so the same callback can be
// registered more than once and each registration is released
// independently. A room with no subscribers left is dropped from the map.
type Bus struct {
	mu     sync.RWMutex
	rooms  map[string]map[uint64]Sink
	nextID uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		rooms: make(map[string]map[uint64]Sink),
	}
}

// Subscribe registers sink for every subsequent event published to room
// and returns the matching unsubscribe function. Calling it more than
// once is safe; after the first call it is a no-op.
func (b *Bus) Subscribe(room string, sink Sink) func() {
	room = normalizeKey(room)

	b.mu.Lock()
	sinks, ok := b.rooms[room]
	if !ok {
		sinks = make(map[uint64]Sink)
		b.rooms[room] = sinks
	}
	b.nextID++
	id := b.nextID
	sinks[id] = sink
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sinks, ok := b.rooms[room]; ok {
				delete(sinks, id)
				if len(sinks) == 0 {
					delete(b.rooms, room)
				}
			}
		})
	}
}

// Publish synchronously delivers ev to every sink currently subscribed
// to room. No subscribers means no-op. A panicking sink loses that one
// event; it never affects the publisher or the other sinks.
func (b *Bus) Publish(room string, ev domain.HeartbeatEvent) {
	room = normalizeKey(room)

	b.mu.RLock()
	sinks := make([]Sink, 0, len(b.rooms[room]))
	for _, s := range b.rooms[room] {
		sinks = append(sinks, s)
	}
	b.mu.RUnlock()

	for _, s := range sinks {
		b.deliver(s, ev)
	}
}

// SubscriberCount reports how many sinks are registered for a room.
func (b *Bus) SubscriberCount(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[normalizeKey(room)])
}

func (b *Bus) deliver(s Sink, ev domain.HeartbeatEvent) {
	defer func() {
		if r := recover(); r != nil {
			l := log.L()
			l.Warn().Interface("panic", r).Str(log.FieldRoom, ev.Room).Msg("presence sink panicked")
		}
	}()
	s(ev)
}
