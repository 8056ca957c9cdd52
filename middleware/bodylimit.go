package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MsgBodyTooLarge is returned with 413 when the body exceeds the limit.
const MsgBodyTooLarge = "richiesta troppo grande"

// BodyLimit caps the request body at limit bytes. Reads past the limit fail
// with *http.MaxBytesError, which handlers map to 413.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": MsgBodyTooLarge,
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
