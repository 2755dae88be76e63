package ui

import (
	"time"

	"qcview/internal"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request at debug level, errors at warn
func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		if status >= 500 {
			logger.Warn("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, elapsed)
			return
		}
		logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}
