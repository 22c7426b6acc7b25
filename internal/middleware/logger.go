package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/luckypig3400/NEC-Backend/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		l := log.WithContext(c.Request.Context()).ZL

		var evt *zerolog.Event
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			evt = l.Error()
			msg = "Server error"
		case statusCode >= 400:
			evt = l.Warn()
			msg = "Client error"
		default:
			evt = l.Info()
		}

		if len(c.Errors) > 0 {
			evt = evt.Str("error", c.Errors.Last().Error())
		}

		evt.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", latency).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
