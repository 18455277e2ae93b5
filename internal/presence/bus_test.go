package presence

import (
	"testing"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
)

func TestBus_PublishReachesEverySubscriber(t *testing.T) {
	b := NewBus()

	var first, second int
	b.Subscribe("lobby", func(domain.HeartbeatEvent) { first++ })
	b.Subscribe("lobby", func(domain.HeartbeatEvent) { second++ })

	b.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 1))

	if first != 1 || second != 1 {
		t.Fatalf("expected one delivery per sink, got %d and %d", first, second)
	}
}

func TestBus_NoCrossRoomDelivery(t *testing.T) {
	b := NewBus()

	var got int
	b.Subscribe("stage", func(domain.HeartbeatEvent) { got++ })

	b.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 1))

	if got != 0 {
		t.Fatalf("expected no delivery to a different room, got %d", got)
	}
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	b := NewBus()

	// Must neither panic nor create a room entry.
	b.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 1))

	if n := b.SubscriberCount("lobby"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	b := NewBus()

	stop1 := b.Subscribe("lobby", func(domain.HeartbeatEvent) {})
	stop2 := b.Subscribe("lobby", func(domain.HeartbeatEvent) {})

	stop1()
	stop1()

	if n := b.SubscriberCount("lobby"); n != 1 {
		t.Fatalf("expected the second subscription to survive, got %d subscribers", n)
	}

	stop2()
	if n := b.SubscriberCount("lobby"); n != 0 {
		t.Fatalf("expected no subscribers after both released, got %d", n)
	}
}

func TestBus_EmptyRoomIsDropped(t *testing.T) {
	b := NewBus()

	stop := b.Subscribe("lobby", func(domain.HeartbeatEvent) {})
	stop()

	b.mu.RLock()
	_, ok := b.rooms["lobby"]
	b.mu.RUnlock()
	if ok {
		t.Fatal("expected the room entry to be removed with its last subscriber")
	}
}

func TestBus_UnsubscribedSinkStopsReceiving(t *testing.T) {
	b := NewBus()

	var got int
	stop := b.Subscribe("lobby", func(domain.HeartbeatEvent) { got++ })

	b.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 1))
	stop()
	b.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 2))

	if got != 1 {
		t.Fatalf("expected exactly one delivery before unsubscribe, got %d", got)
	}
}

func TestBus_PanickingSinkDoesNotStopFanout(t *testing.T) {
	b := NewBus()

	// Registration order does not fix delivery order, so both sides of
	// the panicking sink are covered by counting total deliveries.
	var delivered int
	b.Subscribe("lobby", func(domain.HeartbeatEvent) { delivered++ })
	b.Subscribe("lobby", func(domain.HeartbeatEvent) { panic("bad sink") })
	b.Subscribe("lobby", func(domain.HeartbeatEvent) { delivered++ })

	b.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 1))

	if delivered != 2 {
		t.Fatalf("expected both healthy sinks to receive the event, got %d", delivered)
	}
}

func TestBus_RoomKeysAreNormalized(t *testing.T) {
	b := NewBus()

	var got int
	b.Subscribe("  Lobby ", func(domain.HeartbeatEvent) { got++ })

	b.Publish("LOBBY", domain.NewHeartbeatEvent("lobby", "alice", 1))

	if got != 1 {
		t.Fatalf("expected normalized room keys to match, got %d deliveries", got)
	}
}
