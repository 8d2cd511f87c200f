// Package api is the read-side HTTP surface consumed by the mobile client.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tech2news/technews/internal/logger"
)

// NewServer creates the HTTP engine with all routes configured.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// CORS for the mobile/web clients
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)
	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.Health)
	r.GET("/metrics", handler.Metrics)

	api := r.Group("/api")
	{
		api.GET("/content", handler.GetContent)
		api.GET("/feeds", handler.GetFeeds)
		api.GET("/languages", handler.GetLanguages)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Tech2News API",
			"endpoints": map[string]string{
				"content":   "/api/content?lang=<code>",
				"feeds":     "/api/feeds?lang=<code>&limit=<n>",
				"languages": "/api/languages",
				"health":    "/health",
				"metrics":   "/metrics",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
