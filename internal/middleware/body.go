package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitBody rejects requests whose body is larger than limit. A declared
// Content-Length over the limit is refused before anything is read; otherwise
// reads past the limit fail with *http.MaxBytesError.
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
