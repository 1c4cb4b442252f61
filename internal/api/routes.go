// Copyright 2025 James Ross
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jamesross/log-aggregator/internal/obs"
)

const requestIDHeader = "X-Request-ID"

// NewRouter builds the ingestion HTTP server's routes and middleware chain.
func NewRouter(deps Dependencies, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), requestLogger(log), gin.Recovery())

	router.POST("/publish", Publish(deps))
	router.POST("/publish/batch", PublishBatch(deps))
	router.GET("/events", Events(deps))
	router.GET("/stats", Stats(deps))
	router.GET("/health", Health(deps))

	return router
}

// requestID assigns each request a UUID, reusing one supplied by the caller
// so the same ID can be traced through a load balancer or retry.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs each request's method, path, status, and latency
// through the same zap logger the rest of the service uses.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Info("http request",
			obs.String("request_id", c.GetString("request_id")),
			obs.String("method", c.Request.Method),
			obs.String("path", path),
			obs.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
