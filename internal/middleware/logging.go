package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/legalinmo/legal-api/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID keeps an incoming X-Request-ID or mints one, and binds it to
// the request logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := logger.FromContext(c.Request.Context()).With("client_ip", c.ClientIP())
		if len(c.Errors) > 0 {
			l = l.With("errors", c.Errors.String())
		}
		logger.HTTPLog(l, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}
