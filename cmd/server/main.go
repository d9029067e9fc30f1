package main

// @title           Realtime Chat API
// @version         1.0
// @description     HTTP surface of the real-time chat server
// @host            localhost:8800
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "realtime-chat/docs"
	"realtime-chat/internal/adapters/kafka"
	"realtime-chat/internal/api/handlers"
	"realtime-chat/internal/api/routes"
	"realtime-chat/internal/config"
	"realtime-chat/internal/database"
	"realtime-chat/internal/repositories"
	"realtime-chat/internal/services"
	"realtime-chat/internal/websocket"
	"realtime-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logg)
	logg.Info("Starting chat server")

	db, err := database.NewConnection(cfg.Database, logg)
	if err != nil {
		logg.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logg.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	store := repositories.NewStore(db)

	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	hubOpts := []websocket.Option{
		websocket.WithSendBufferSize(cfg.WebSocket.SendBufferSize),
		websocket.WithMaxMessageSize(cfg.WebSocket.MaxMessageSize),
		websocket.WithAllowedOrigins(cfg.WebSocket.AllowedOrigins),
	}
	if cfg.JWT.RequireOnWS {
		hubOpts = append(hubOpts, websocket.WithTokenVerifier(tokens))
	}

	healthChecks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisService *services.RedisService
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisConnection(cfg.Redis, logg)
		if err != nil {
			logg.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		redisService = services.NewRedisService(redisClient, logg)
		hubOpts = append(hubOpts, websocket.WithPresenceCache(redisService))
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.GetClient().Ping(ctx).Err()
		}
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.InitKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			logg.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		publisher := kafka.NewMessagePublisher(producer, cfg.Kafka.Topic, logg)
		defer publisher.Close()
		hubOpts = append(hubOpts, websocket.WithMessagePublisher(publisher))
	}

	if cfg.MinIO.Enabled() {
		minioClient, err := database.NewMinIOClient(context.Background(), cfg.MinIO, logg)
		if err != nil {
			logg.Error("Failed to connect to MinIO", "error", err)
			os.Exit(1)
		}
		signer := services.NewAttachmentService(minioClient, cfg.MinIO.PresignExpiry, logg)
		hubOpts = append(hubOpts, websocket.WithAttachmentSigner(signer))
	}

	hub := websocket.NewHub(store, logg, hubOpts...)
	go hub.Run()

	gin.SetMode(gin.ReleaseMode)
	routerOpts := routes.Options{
		Hub:             hub,
		Directory:       hub.Registry(),
		HealthChecks:    healthChecks,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
		WSRateLimit:     cfg.WebSocket.RateLimit,
		WSRateWindow:    cfg.WebSocket.RateLimitWindow,
		TokenVerifier:   tokens,
		RequireAPIToken: cfg.JWT.RequireOnWS,
		Log:             logg,
	}
	if redisService != nil {
		routerOpts.RateLimiter = redisService
	}
	router := routes.NewRouter(routerOpts)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Server forced to shutdown", "error", err)
	}
	// closes every socket; their disconnects still write offline status
	hub.Stop()

	logg.Info("Server stopped")
}
