package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	resp "campusconnect/internal/transport/http/response"
)

// Timeout puts a deadline on the request context that gorm and redis calls
// inherit. A query cut off by it fails with DeadlineExceeded, which Fail
// writes as 504; a handler that wrote nothing gets the 504 here. d <= 0
// disables the deadline.
func Timeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			resp.Abort(c, http.StatusGatewayTimeout)
		}
	}
}
