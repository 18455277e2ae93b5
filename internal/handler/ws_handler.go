package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MGeorge0116/ezchat-cam/internal/config"
	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/hub"
	"github.com/MGeorge0116/ezchat-cam/internal/presence"
	"github.com/MGeorge0116/ezchat-cam/internal/pubsub"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// WSHandler serves the WebSocket presence channel: the same bus as the
// SSE stream, over a second transport that also accepts heartbeats.
type WSHandler struct {
	hub      *hub.Hub
	store    *presence.Store
	bus      *presence.Bus
	bridge   *pubsub.Bridge
	wsConfig config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WebSocket presence handler. bridge may be nil.
func NewWSHandler(h *hub.Hub, store *presence.Store, bus *presence.Bus, bridge *pubsub.Bridge, cfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		store:    store,
		bus:      bus,
		bridge:   bridge,
		wsConfig: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/presence", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and starts the read/write pumps.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsConfig)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func (h *WSHandler) handleMessage(c *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		c.SendMessage(domain.NewErrorMessage("invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypeJoin:
		var msg domain.JoinMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.SendMessage(domain.NewErrorMessage("invalid join message"))
			return
		}
		if msg.Room == "" {
			c.SendMessage(domain.NewErrorMessage("room is required"))
			return
		}
		if msg.Username != "" {
			c.Username = strings.ToLower(strings.TrimSpace(msg.Username))
		}
		h.hub.JoinRoom(c, msg.Room)

	case domain.MsgTypeLeave:
		h.hub.LeaveRoom(c)

	case domain.MsgTypeHeartbeat:
		room := c.Room()
		if room == "" || c.Username == "" {
			c.SendMessage(domain.NewErrorMessage("join a room with a username first"))
			return
		}
		at := h.store.RecordHeartbeat(room, c.Username)
		ev := domain.NewHeartbeatEvent(room, c.Username, at.UnixMilli())
		h.bus.Publish(room, ev)
		if h.bridge != nil {
			h.bridge.PublishHeartbeat(context.Background(), ev)
		}

	default:
		c.SendMessage(domain.NewErrorMessage("unknown message type: " + base.Type))
	}
}
