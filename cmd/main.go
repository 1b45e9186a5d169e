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

	"github.com/ycyw/support-chat-service/internal/auth"
	"github.com/ycyw/support-chat-service/internal/config"
	"github.com/ycyw/support-chat-service/internal/database"
	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/handler"
	"github.com/ycyw/support-chat-service/internal/hub"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/registry"
	"github.com/ycyw/support-chat-service/internal/service"
	"github.com/ycyw/support-chat-service/internal/store"
	"github.com/ycyw/support-chat-service/internal/token"
	"github.com/ycyw/support-chat-service/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "support-chat-service"})
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting support chat gateway")

	if cfg.JWT.Secret == "" {
		logger.Fatal().Msg("jwt.secret is required (JWT_SECRET)")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, &user.User{}, &domain.Conversation{}, &domain.Message{}); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
	}

	var reg registry.ConversationRegistry = registry.Noop{}
	if cfg.Redis.Enabled {
		advertise := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		redisReg, err := registry.NewRedisRegistry(cfg.Redis, advertise)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize redis registry")
		}
		reg = redisReg
		logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	}
	defer reg.Close()

	users := user.NewGormRepository(db)
	validator := token.NewValidator([]byte(cfg.JWT.Secret), cfg.JWT.Issuer)
	authenticator := auth.NewAuthenticator(validator, users)
	messages := store.NewGormStore(db, users)

	wsHub := hub.NewHub()
	chatSvc := service.NewChatService(wsHub, authenticator, messages, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := chatSvc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start chat service")
	}
	defer chatSvc.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(log.GinMiddleware(logger), gin.Recovery())

	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.Server, cfg.WebSocket)
	wsHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("stopped")
}
