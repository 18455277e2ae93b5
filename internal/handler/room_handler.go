package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MGeorge0116/ezchat-cam/internal/audit"
	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/middleware"
	"github.com/MGeorge0116/ezchat-cam/internal/registry"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
	"github.com/MGeorge0116/ezchat-cam/pkg/response"
)

// RoomHandler serves the room registry endpoints.
type RoomHandler struct {
	registry *registry.Registry
}

// NewRoomHandler creates a room handler.
func NewRoomHandler(reg *registry.Registry) *RoomHandler {
	return &RoomHandler{registry: reg}
}

// RegisterRoutes registers the room endpoints.
func (h *RoomHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/rooms")
	{
		api.GET("", h.ListRooms)
		api.POST("/upsert", h.UpsertRoom)
		api.POST("/join", h.JoinRoom)
		api.GET("/:name/stats", h.GetStats)
	}
}

// UpsertRoom handles POST /api/v1/rooms/upsert. Only provided fields
// are written; a positive users or broadcasters count marks the room
// live.
func (h *RoomHandler) UpsertRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.UpsertRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind upsert room request")
		response.BadRequest(c, "invalid body")
		return
	}

	rec := h.registry.Upsert(req.Room, domain.RoomPatch{
		Title:        req.Title,
		Users:        req.UsersCount,
		Broadcasters: req.CamsCount,
	})

	response.Success(c, rec)
}

// JoinRoom handles POST /api/v1/rooms/join: marks the room live and
// titles it with its uppercased name.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind join room request")
		response.BadRequest(c, "invalid body")
		return
	}

	room := strings.ToLower(strings.TrimSpace(req.Room))
	title := strings.ToUpper(room)
	live := true
	promoted := false

	h.registry.Upsert(room, domain.RoomPatch{
		Title:    &title,
		IsLive:   &live,
		Promoted: &promoted,
	})

	audit.LogWithDetail(ctx, audit.ActionJoinRoom, middleware.GetUserID(c), room, "room joined")

	response.Success(c, gin.H{
		"ok":            true,
		"room":          room,
		"ownerUsername": strings.ToLower(strings.TrimSpace(req.OwnerUsername)),
	})
}

// ListRooms handles GET /api/v1/rooms, most recently updated first.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	response.Success(c, gin.H{"rooms": h.registry.List()})
}

// GetStats handles GET /api/v1/rooms/:name/stats. Unknown rooms report
// zero counts.
func (h *RoomHandler) GetStats(c *gin.Context) {
	name := c.Param("name")
	stats := h.registry.Stats(name)

	response.Success(c, domain.RoomStatsResponse{
		Room:         strings.ToLower(strings.TrimSpace(name)),
		Broadcasters: stats.Broadcasters,
		Users:        stats.Users,
	})
}
