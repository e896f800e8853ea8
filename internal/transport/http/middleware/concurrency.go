package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "campusconnect/internal/transport/http/response"
)

// ConcurrencyLimit caps the /api requests in flight so a burst of list
// queries cannot exhaust the db pool. A request that cannot get a slot
// before its context ends gets 503. max <= 0 disables the cap.
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	if max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	slots := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		// 大多数时候有空位，不进等待队列
		if !slots.TryAcquire(1) {
			if err := slots.Acquire(c.Request.Context(), 1); err != nil {
				resp.Abort(c, http.StatusServiceUnavailable)
				return
			}
		}
		defer slots.Release(1)
		c.Next()
	}
}
