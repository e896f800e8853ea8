package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "campusconnect/internal/transport/http/response"
)

// MaxBodyBytes rejects a declared Content-Length over n with 413 and caps
// undeclared bodies with MaxBytesReader; ez maps the read error to 413 too.
// n <= 0 leaves bodies unbounded.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	if n <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
