package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akhatri/ledger-alerts/internal/ws"
)

// SetupRouter builds the gin engine with CORS, request logging, and the
// feed API routes.
func SetupRouter(h *Handler, hub *ws.Hub, allowedOrigins []string, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/healthz", h.Health)

	api := router.Group("/api/v1")
	{
		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("", h.AddNotification)
			notifications.POST("/:id/read", h.MarkRead)
			notifications.POST("/read-all", h.MarkAllRead)
			notifications.DELETE("/:id", h.RemoveNotification)
			notifications.POST("/refresh", h.RefreshFeed)
		}

		api.GET("/ws", ws.ServeWS(hub))
	}

	return router
}

// corsMiddleware allows the configured SPA origins.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Length, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestLogger logs each request with method, path, status, and latency.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
