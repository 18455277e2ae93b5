package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MGeorge0116/ezchat-cam/internal/middleware"
	"github.com/MGeorge0116/ezchat-cam/internal/token"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
)

// TokenHandler issues RTC and RTM tokens for the media SDK.
type TokenHandler struct {
	builder        *token.RTCBuilder
	tokenExpires   time.Duration
	authMiddleware *middleware.AuthMiddleware
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(builder *token.RTCBuilder, tokenExpires time.Duration, authMiddleware *middleware.AuthMiddleware) *TokenHandler {
	return &TokenHandler{
		builder:        builder,
		tokenExpires:   tokenExpires,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the token endpoints.
func (h *TokenHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/token", h.authMiddleware.RequireAuth(), h.RTCToken)
		api.GET("/rtm-token", h.RTMToken)
	}
}

// RTCToken handles GET /api/v1/token?channel=&role=. A user may only
// publish into the channel named after them.
func (h *TokenHandler) RTCToken(c *gin.Context) {
	if !h.builder.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rtc not configured"})
		return
	}

	username := strings.ToLower(middleware.GetUsername(c))
	channel := strings.ToLower(c.Query("channel"))
	role := strings.ToLower(c.DefaultQuery("role", token.RolePublisher))

	if role != token.RolePublisher && role != token.RoleSubscriber {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be publisher or subscriber"})
		return
	}
	if channel == "" || channel != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "channel must equal your username"})
		return
	}

	signed, err := h.builder.BuildRTCToken(channel, username, role, h.tokenExpires)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to build rtc token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     signed,
		"appId":     h.builder.AppID(),
		"expiresIn": int64(h.tokenExpires.Seconds()),
	})
}

// RTMToken handles GET /api/v1/rtm-token?userId=&expiresIn=. Accepts
// uid as an alias for userId; expiry is clamped server-side.
func (h *TokenHandler) RTMToken(c *gin.Context) {
	if !h.builder.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rtc not configured"})
		return
	}

	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = strings.TrimSpace(c.Query("uid"))
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId (or uid) query param"})
		return
	}

	expiresIn := time.Hour
	if raw := c.Query("expiresIn"); raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			expiresIn = time.Duration(secs) * time.Second
		}
	}

	signed, granted, err := h.builder.BuildRTMToken(userID, expiresIn)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("failed to build rtm token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate RTM token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     signed,
		"userId":    userID,
		"expiresIn": int64(granted.Seconds()),
	})
}
