package middleware

import (
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// AccessLog writes one line per request once the handler chain has finished.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := log.FromContext(c.Request.Context()).WithFields(log.Fields{
			"status":    status,
			"client_ip": c.ClientIP(),
			"bytes":     c.Writer.Size(),
			"encoding":  c.Writer.Header().Get("Content-Encoding"),
		}).WithDuration(time.Since(started))

		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
