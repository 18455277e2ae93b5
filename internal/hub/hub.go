// Package hub tracks WebSocket presence watchers. Each client holds at
// most one room subscription on the presence bus; the hub guarantees the
// subscription is released when the client leaves or disconnects.
package hub

import (
	"sync"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/presence"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

type Hub struct {
	bus *presence.Bus

	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub fanning events out from the given bus.
func NewHub(bus *presence.Bus) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes register/unregister requests until Stop is called.
// Must run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.removeClient(client)

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				client.clearSubscription()
				client.closeSend()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client, releasing its room subscription.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// JoinRoom subscribes the client to a room's presence events, replacing
// any previous subscription. The client receives a ready message before
// any event, then one serialized heartbeat event per publish.
func (h *Hub) JoinRoom(client *Client, room string) {
	unsubscribe := h.bus.Subscribe(room, func(ev domain.HeartbeatEvent) {
		client.SendMessage(ev)
	})
	client.swapSubscription(room, unsubscribe)

	client.SendMessage(&domain.ReadyMessage{Type: domain.MsgTypeReady, Room: room})
	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldRoom, room).Msg("client watching room")
}

// LeaveRoom drops the client's current subscription, if any.
func (h *Hub) LeaveRoom(client *Client) {
	client.clearSubscription()
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every client connection and terminates Run.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	h.mu.Unlock()

	client.clearSubscription()
	client.closeSend()
	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
}
