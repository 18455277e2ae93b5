package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/presence"
	"github.com/MGeorge0116/ezchat-cam/internal/pubsub"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// isoMillis matches the timestamp format browsers produce, millisecond
// precision with a Z suffix.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// PresenceHandler exposes the heartbeat, snapshot and stream endpoints.
type PresenceHandler struct {
	store  *presence.Store
	bus    *presence.Bus
	bridge *pubsub.Bridge // nil unless cross-instance sync is enabled
}

// NewPresenceHandler creates a presence handler. bridge may be nil.
func NewPresenceHandler(store *presence.Store, bus *presence.Bus, bridge *pubsub.Bridge) *PresenceHandler {
	return &PresenceHandler{
		store:  store,
		bus:    bus,
		bridge: bridge,
	}
}

// RegisterRoutes registers the presence endpoints.
func (h *PresenceHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/presence")
	{
		api.POST("/heartbeat", h.Heartbeat)
		api.GET("/list", h.List)
		api.GET("/stream", h.Stream)
	}
}

// Heartbeat handles POST /api/v1/presence/heartbeat?room=&username=.
// The store write happens before the publish so a subscriber waking on
// the event reads a consistent snapshot.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	room := c.Query("room")
	username := c.Query("username")
	if room == "" || username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room or username"})
		return
	}

	at := h.store.RecordHeartbeat(room, username)
	ev := domain.NewHeartbeatEvent(room, username, at.UnixMilli())
	h.bus.Publish(room, ev)

	if h.bridge != nil {
		h.bridge.PublishHeartbeat(c.Request.Context(), ev)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "at": ev.At})
}

// List handles GET /api/v1/presence/list?room=. A room nobody ever
// heartbeat in yields an empty list, not an error.
func (h *PresenceHandler) List(c *gin.Context) {
	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room"})
		return
	}

	infos := h.store.ListPresence(room)
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Username < infos[j].Username
	})

	users := make([]domain.PresenceEntry, 0, len(infos))
	for _, u := range infos {
		users = append(users, domain.PresenceEntry{
			Username: u.Username,
			LastSeen: time.UnixMilli(u.LastSeen).UTC().Format(isoMillis),
			IsLive:   u.IsLive,
		})
	}

	c.JSON(http.StatusOK, domain.PresenceListResponse{Users: users})
}

// Stream handles GET /api/v1/presence/stream?room= as a server-sent
// event stream. The first frame is a ready marker; every heartbeat
// published to the room afterwards becomes one data frame. The bus
// subscription is released exactly once, on whichever path ends the
// request.
func (h *PresenceHandler) Stream(c *gin.Context) {
	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room"})
		return
	}

	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache, no-transform")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	// The sink never blocks the publisher: a client that stops reading
	// overflows its buffer and loses events, everyone else is unaffected.
	events := make(chan domain.HeartbeatEvent, 64)
	unsubscribe := h.bus.Subscribe(room, func(ev domain.HeartbeatEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	fmt.Fprint(c.Writer, "event: ready\ndata: {}\n\n")
	c.Writer.Flush()

	l.Debug().Str(log.FieldRoom, room).Msg("presence stream opened")

	for {
		select {
		case <-ctx.Done():
			l.Debug().Str(log.FieldRoom, room).Msg("presence stream closed")
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
