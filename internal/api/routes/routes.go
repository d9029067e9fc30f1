package routes

import (
	"io"
	"log/slog"
	"time"

	"realtime-chat/internal/api/handlers"
	"realtime-chat/internal/api/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Hub is what the HTTP surface needs from the real-time layer
type Hub interface {
	handlers.SocketServer
	ClientCount() int
}

type Options struct {
	Hub            Hub
	Directory      handlers.OnlineDirectory
	HealthChecks   map[string]handlers.HealthCheck
	AllowedOrigins []string

	// optional
	RateLimiter     middleware.RateLimiter
	WSRateLimit     int
	WSRateWindow    time.Duration
	TokenVerifier   middleware.TokenVerifier
	RequireAPIToken bool

	Log       *slog.Logger
	AccessLog io.Writer // gin.DefaultWriter when nil
}

type Router struct {
	engine          *gin.Engine
	wsHandler       *handlers.WSHandler
	healthHandler   *handlers.HealthHandler
	presenceHandler *handlers.PresenceHandler
	rateLimitMW     *middleware.RateLimitMiddleware
	authMW          *middleware.AuthMiddleware
	opts            Options
}

func NewRouter(opts Options) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(opts.AllowedOrigins))
	engine.Use(middleware.LogApi(opts.AccessLog, "/health"))

	r := &Router{
		engine:          engine,
		wsHandler:       handlers.NewWSHandler(opts.Hub),
		healthHandler:   handlers.NewHealthHandler(opts.Hub.ClientCount, opts.HealthChecks),
		presenceHandler: handlers.NewPresenceHandler(opts.Directory),
		opts:            opts,
	}
	if opts.RateLimiter != nil {
		r.rateLimitMW = middleware.NewRateLimitMiddleware(opts.RateLimiter, opts.Log)
	}
	if opts.RequireAPIToken && opts.TokenVerifier != nil {
		r.authMW = middleware.NewAuthMiddleware(opts.TokenVerifier)
	}
	return r
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.healthHandler.Health)
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.engine.Group("/api/v1")

	wsChain := []gin.HandlerFunc{}
	if r.rateLimitMW != nil && r.opts.WSRateLimit > 0 {
		wsChain = append(wsChain, r.rateLimitMW.RateLimitIP(r.opts.WSRateLimit, r.opts.WSRateWindow))
	}
	wsChain = append(wsChain, r.wsHandler.HandleWebSocket)
	api.GET("/ws", wsChain...)

	presence := api.Group("/presence")
	if r.authMW != nil {
		presence.Use(r.authMW.RequireAuth())
	}
	{
		presence.GET("", r.presenceHandler.GetOnlineUsers)
		presence.GET("/:id", r.presenceHandler.GetUserStatus)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
