package middleware

import (
	"time"

	"github.com/Anaqqa/supfile/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes per-request logs at debug level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !logger.IsDebugEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		if rawQuery != "" {
			path = path + "?" + rawQuery
		}

		logger.WithFields(logger.Fields{
			"method":   c.Request.Method,
			"status":   c.Writer.Status(),
			"latency":  time.Since(start),
			"client":   c.ClientIP(),
			"path":     path,
			"user_id":  c.GetUint(ContextUserID),
			"response": c.Writer.Size(),
		}).Debug("request handled")
	}
}
