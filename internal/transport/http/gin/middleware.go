package httpgin

import (
	"log/slog"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	clientIDHeader = "X-Client-ID"
	clientIDCookie = "eventease_client"
	clientIDKey    = "client_id"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()
	}
}

// ClientIDMiddleware identifies the visitor by header or cookie, issuing a
// new id when neither carries a valid one. The id scopes the visitor's
// session storage.
func ClientIDMiddleware() gin.HandlerFunc {
	maxAge := int((2 * domain.SessionTimeout).Seconds())

	return func(c *gin.Context) {
		id := c.GetHeader(clientIDHeader)
		if id == "" {
			id, _ = c.Cookie(clientIDCookie)
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.SetCookie(clientIDCookie, id, maxAge, "/", "", false, true)
		c.Header(clientIDHeader, id)
		c.Set(clientIDKey, id)

		c.Next()
	}
}

func clientID(c *gin.Context) string {
	return c.GetString(clientIDKey)
}

func CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			clientIDHeader,
			"Idempotency-Key",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			clientIDHeader,
			"ETag",
			"Cache-Control",
			"Retry-After",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(cfg)
}

func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		reqID, _ := c.Get("request_id")
		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.String("client_id", clientID(c)),
			slog.Any("request_id", reqID),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		switch {
		case len(c.Errors) > 0 || c.Writer.Status() >= 500:
			logger.Error("http", slog.Group("http", attrs...))
		default:
			logger.Info("http", slog.Group("http", attrs...))
		}
	}
}
