package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/MGeorge0116/ezchat-cam/internal/audit"
	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/middleware"
	"github.com/MGeorge0116/ezchat-cam/internal/repository"
	"github.com/MGeorge0116/ezchat-cam/internal/token"
	"github.com/MGeorge0116/ezchat-cam/pkg/log"
	"github.com/MGeorge0116/ezchat-cam/pkg/response"
)

// AuthHandler serves account registration, login and identity lookup.
type AuthHandler struct {
	users          repository.UserRepository
	tokens         *token.Manager
	authMiddleware *middleware.AuthMiddleware
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(users repository.UserRepository, tokens *token.Manager, authMiddleware *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{
		users:          users,
		tokens:         tokens,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the auth endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", h.authMiddleware.RequireAuth(), h.Me)
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		response.InternalError(c, "failed to register")
		return
	}

	user, err := h.users.Create(ctx, req.Username, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Conflict(c, "username or email already taken")
			return
		}
		l.Error().Err(err).Msg("failed to create user")
		response.InternalError(c, "failed to register")
		return
	}

	signed, expiresAt, err := h.tokens.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		l.Error().Err(err).Msg("failed to sign access token")
		response.InternalError(c, "failed to register")
		return
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "account registered")

	response.Created(c, domain.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	model, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		l.Error().Err(err).Msg("failed to load user")
		response.InternalError(c, "failed to login")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(model.PasswordHash), []byte(req.Password)) != nil {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	user := model.ToDomain()
	signed, expiresAt, err := h.tokens.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		l.Error().Err(err).Msg("failed to sign access token")
		response.InternalError(c, "failed to login")
		return
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "account logged in")

	response.Success(c, domain.AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to load user")
		response.InternalError(c, "failed to load user")
		return
	}

	response.Success(c, user)
}
