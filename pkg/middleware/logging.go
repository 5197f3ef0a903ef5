package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/demand-forecasting/pkg/common"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs every request once it has been served
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Duration("latency", time.Since(start)),
		}

		reqLogger := logger.WithContext(c.Request.Context())
		switch {
		case len(c.Errors) > 0:
			reqLogger.Error("Request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			reqLogger.Warn("Request failed", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}

// Recovery turns a panic into a 500 response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithContext(c.Request.Context()).Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
				c.Abort()
			}
		}()

		c.Next()
	}
}
