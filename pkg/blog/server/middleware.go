package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the request identifier in both directions
	HeaderRequestID = "X-Request-ID"
	// ContextKeyRequestID is the key for the request ID in gin context
	ContextKeyRequestID = "request_id"
)

// RequestID reuses the caller's X-Request-ID or stamps a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logger is gin's request logger with the request ID appended
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		requestID, _ := p.Keys[ContextKeyRequestID].(string)
		return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v | %s\n%s",
			p.TimeStamp.Format(time.RFC3339),
			p.StatusCode,
			p.Latency,
			p.ClientIP,
			p.Method,
			p.Path,
			requestID,
			p.ErrorMessage,
		)
	})
}
