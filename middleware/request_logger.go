package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestID    = "request_id"
	CtxLogger       = "logger"
)

// RequestLogger tags each request with an id and logs it on completion.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)

		entry := log.WithField("request_id", id)
		c.Set(CtxLogger, entry)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}
		if id, ok := UserID(c); ok {
			fields["user_id"] = id
		}
		e := entry.WithFields(fields)
		switch {
		case len(c.Errors) > 0:
			e.WithError(c.Errors.Last()).Error("request failed")
		case c.Writer.Status() >= 500:
			e.Error("request completed")
		case c.Writer.Status() >= 400:
			e.Warn("request completed")
		default:
			e.Info("request completed")
		}
	}
}

// Logger returns the request-scoped logger, or fallback.
func Logger(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(CtxLogger); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return fallback
}
