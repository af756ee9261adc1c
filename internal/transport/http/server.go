package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/auth"
	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds the HTTP server: REST API, health endpoint and websocket.
// pinger may be nil.
func NewServer(hub *core.Hub, authService *auth.Service, pinger Pinger, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler(hub, pinger))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	api := router.Group("/api")
	{
		apiHandlers := NewAPIHandlers(authService, logger)
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)

		protected := api.Group("")
		protected.Use(AuthMiddleware(authService, logger))

		roomHandlers := NewRoomHandlers(hub, logger)
		protected.GET("/rooms/:room/messages", roomHandlers.GetMessages)

		userHandlers := NewUserHandlers(hub, logger)
		protected.GET("/me", userHandlers.Me)
		protected.GET("/users/online", userHandlers.Online)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string     `json:"status"`
	Database string     `json:"database,omitempty"`
	Hub      core.Stats `json:"hub"`
}

func healthHandler(hub *core.Hub, pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{Status: "ok", Hub: hub.Stats()}
		status := stdhttp.StatusOK

		if pinger != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			resp.Database = "ok"
			if err := pinger.Ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Database = "unreachable"
				status = stdhttp.StatusServiceUnavailable
			}
		}

		c.JSON(status, resp)
	}
}
