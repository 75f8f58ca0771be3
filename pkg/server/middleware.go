package server

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/knowbase/knowbase-go/pkg/logger"
)

// RequestIDHeader carries the request identifier on responses and may be
// supplied by callers to propagate an existing one.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key holding the request identifier.
const requestIDKey = "request_id"

// RequestID returns middleware that tags every request with a unique
// identifier. Incoming X-Request-ID headers are honored; otherwise a
// snowflake ID is generated.
func RequestID() (gin.HandlerFunc, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = node.Generate().String()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}, nil
}

// RequestLogger returns middleware that logs one line per request, with
// the level picked by status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

// CORS returns middleware that lets browser frontends on any origin call
// the API. Credentials stay disabled because the origin is wildcarded.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: false,
	})
}
