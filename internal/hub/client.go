package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MGeorge0116/ezchat-cam/internal/config"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// Client is one WebSocket connection watching a room's presence.
// The room subscription is touched by both the hub goroutine and the
// read pump, so those fields live behind the client's own lock.
type Client struct {
	ID       string
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	Username string

	mu          sync.Mutex
	room        string // room currently watched, "" until a join
	unsubscribe func()
	closed      bool

	config config.WebSocketConfig
}

// NewClient wraps an upgraded connection.
func NewClient(id string, h *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:     id,
		Hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		config: cfg,
	}
}

// Room reports the room the client currently watches, "" if none.
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// swapSubscription installs a new room subscription and releases the
// previous one, if any. The old unsubscribe runs outside the lock;
// it is idempotent, so racing callers are harmless.
func (c *Client) swapSubscription(room string, unsubscribe func()) {
	c.mu.Lock()
	old := c.unsubscribe
	c.room = room
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	if old != nil {
		old()
	}
}

// clearSubscription drops the current subscription, if any.
func (c *Client) clearSubscription() {
	c.swapSubscription("", nil)
}

// closeSend closes the send channel exactly once. SendMessage checks
// the same flag, so a late event cannot hit a closed channel.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump consumes client messages until the connection drops, then
// unregisters the client. Must run in its own goroutine.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("websocket read error")
			}
			break
		}
		handler(c, message)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// connection alive with pings. Must run in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage marshals and queues a message. A client with a full send
// buffer drops the message rather than blocking the caller; a closed
// client drops everything.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.Send <- data:
	default:
	}
	return nil
}
