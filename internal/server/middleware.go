package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/datalake/internal/types"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader carries the per-request id on every response.
const RequestIDHeader = "X-Request-ID"

// requestID assigns a fresh id to each request and stores it in the request
// context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := types.NewRequestID()
		ctx := context.WithValue(c.Request.Context(), requestIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, string(id))
		c.Next()
	}
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) types.RequestID {
	id, _ := ctx.Value(requestIDKey).(types.RequestID)
	return id
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "request completed",
			slog.String("request_id", string(RequestIDFrom(c.Request.Context()))),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
