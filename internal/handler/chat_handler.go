package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MGeorge0116/ezchat-cam/internal/chat"
	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/middleware"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
	"github.com/MGeorge0116/ezchat-cam/pkg/response"
)

// ChatHandler serves the chat history endpoints.
type ChatHandler struct {
	history        *chat.History
	authMiddleware *middleware.AuthMiddleware
}

// NewChatHandler creates a chat handler.
func NewChatHandler(history *chat.History, authMiddleware *middleware.AuthMiddleware) *ChatHandler {
	return &ChatHandler{
		history:        history,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the chat endpoints.
func (h *ChatHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/chat")
	{
		api.GET("/list", h.ListMessages)
		api.POST("", h.authMiddleware.RequireAuth(), h.PostMessage)
	}
}

// ListMessages handles GET /api/v1/chat/list?room=.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	room := c.Query("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing room"})
		return
	}

	messages, err := h.history.List(ctx, room)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoom, room).Msg("failed to list chat history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	entries := make([]domain.ChatEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, domain.ChatEntry{
			ID:        m.ID,
			Text:      m.Text,
			Username:  m.Username,
			CreatedAt: time.UnixMilli(m.CreatedAt).UTC().Format(isoMillis),
		})
	}

	c.JSON(http.StatusOK, domain.ChatListResponse{Messages: entries})
}

// PostMessage handles POST /api/v1/chat. The author is the
// authenticated user.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	username := middleware.GetUsername(c)
	if username == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.PostChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.history.Append(ctx, req.Room, username, req.Text)
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoom, req.Room).Msg("failed to append chat message")
		response.InternalError(c, "failed to post message")
		return
	}

	response.Created(c, msg)
}
