package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postcode-matcher/helpers/utils"
)

// requestID echoes a usable X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := utils.RequestID(c.GetHeader(utils.RequestIDHeader))
		c.Set(utils.RequestIDKey, id)
		c.Header(utils.RequestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request. Probes and scrapes log at Debug.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(utils.RequestIDKey)),
			zap.String("client_ip", c.ClientIP()),
		}
		switch c.Request.URL.Path {
		case "/health", "/ready", "/live", "/metrics":
			logger.Debug("Request", fields...)
		default:
			if c.Writer.Status() >= 500 {
				logger.Warn("Request", fields...)
				return
			}
			logger.Info("Request", fields...)
		}
	}
}
