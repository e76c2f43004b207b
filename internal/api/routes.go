package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/api/handlers"
	"github.com/playpool/cuesim/internal/config"
	"github.com/playpool/cuesim/internal/logging"
	"github.com/playpool/cuesim/internal/middleware"
	"github.com/playpool/cuesim/internal/session"
	"github.com/playpool/cuesim/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, mgr *session.Manager, hub *ws.Hub, cfg *config.Config, log zerolog.Logger) {
	log = logging.Component(log, "api")

	router.Use(middleware.CORSMiddleware(cfg, log))

	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Next()
		})
		log.Debug().Msg("no-cache headers enabled")
	}

	upgrader := ws.NewUpgrader(func(r *http.Request) bool {
		return middleware.OriginAllowed(cfg, r.Header.Get("Origin"))
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(mgr, log))
			sessions.GET("/:id", handlers.GetSession(mgr, hub, log))
			sessions.GET("/:id/events", handlers.GetSessionEvents(mgr, log))
			sessions.GET("/:id/table", handlers.GetSessionTable(mgr, log))
			sessions.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.SessionWebSocket(mgr, hub, upgrader, log))
		}
	}
}
