package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MGeorge0116/ezchat-cam/internal/chat"
	"github.com/MGeorge0116/ezchat-cam/internal/config"
	"github.com/MGeorge0116/ezchat-cam/internal/database"
	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/handler"
	"github.com/MGeorge0116/ezchat-cam/internal/hub"
	"github.com/MGeorge0116/ezchat-cam/internal/kvstore"
	"github.com/MGeorge0116/ezchat-cam/internal/middleware"
	"github.com/MGeorge0116/ezchat-cam/internal/presence"
	"github.com/MGeorge0116/ezchat-cam/internal/pubsub"
	"github.com/MGeorge0116/ezchat-cam/internal/registry"
	"github.com/MGeorge0116/ezchat-cam/internal/repository"
	"github.com/MGeorge0116/ezchat-cam/internal/token"
	pkglog "github.com/MGeorge0116/ezchat-cam/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "ezchat-cam",
	})
	logger := pkglog.L()

	instanceID := cfg.Server.InstanceID
	if instanceID == "" {
		instanceID = uuid.New().String()
	}

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Str("instance_id", instanceID).Msg("starting ezchat-cam")

	// Database for user accounts.
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.UserModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	// Redis for chat history, the user profile cache and, optionally,
	// cross-instance presence sync.
	kv, err := kvstore.NewRedisStore(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer kv.Close()

	userRepo := repository.NewCachedUserRepository(repository.NewGormUserRepository(db), kv, 5*time.Minute)

	// Presence core: explicitly constructed, injected into every handler.
	store := presence.NewStore()
	bus := presence.NewBus()
	roomRegistry := registry.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var bridge *pubsub.Bridge
	if cfg.Redis.EnableSync {
		bridge = pubsub.NewBridge(kv.Client(), cfg.Redis.SyncChannel, store, bus, instanceID)
		go bridge.Run(ctx)
		logger.Info().Str("channel", cfg.Redis.SyncChannel).Msg("presence sync bridge started")
	}

	// WebSocket hub over the same bus.
	h := hub.NewHub(bus)
	go h.Run()

	chatHistory := chat.NewHistory(kv, cfg.Chat.HistoryLimit, cfg.Chat.HistoryTTL)

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, "ezchat-cam")
	rtcBuilder := token.NewRTCBuilder(cfg.RTC.AppID, cfg.RTC.AppCertificate)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// Handlers.
	presenceHandler := handler.NewPresenceHandler(store, bus, bridge)
	wsHandler := handler.NewWSHandler(h, store, bus, bridge, cfg.WebSocket)
	roomHandler := handler.NewRoomHandler(roomRegistry)
	chatHandler := handler.NewChatHandler(chatHistory, authMiddleware)
	authHandler := handler.NewAuthHandler(userRepo, tokens, authMiddleware)
	tokenHandler := handler.NewTokenHandler(rtcBuilder, cfg.RTC.TokenExpires, authMiddleware)

	// Router.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	presenceHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)
	roomHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)
	tokenHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	// No WriteTimeout: the presence stream holds its response open.
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("ezchat-cam listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down ezchat-cam")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		cancel() // stop the sync bridge
		if bridge != nil {
			<-bridge.Done()
		}

		h.Stop() // close all WS clients

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("ezchat-cam stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
