package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/domain"
)

// Resp is the envelope of every JSON response.
type Resp struct {
	Success     bool               `json:"success"`
	Data        any                `json:"data,omitempty"`
	Message     string             `json:"message,omitempty"`
	Pagination  *domain.Pagination `json:"pagination,omitempty"`
	UnreadCount *int64             `json:"unreadCount,omitempty"`
}

// Msg 作为 handler 的返回值时只输出 message，不带 data
type Msg string

type pager interface {
	Unpack() (any, domain.Pagination)
}

type unreadCounter interface {
	Unread() int64
}

// Build wraps a handler result into the envelope.
func Build(out any) Resp {
	switch v := out.(type) {
	case Resp:
		return v
	case Msg:
		return Resp{Success: true, Message: string(v)}
	case pager:
		items, p := v.Unpack()
		r := Resp{Success: true, Data: items, Pagination: &p}
		if u, ok := out.(unreadCounter); ok {
			n := u.Unread()
			r.UnreadCount = &n
		}
		return r
	default:
		return Resp{Success: true, Data: out}
	}
}

func OK(c *gin.Context, status int, out any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Build(out))
}

func Error(code int, customMsg string) Resp {
	msg := msgFor(code)
	if customMsg != "" {
		msg = customMsg
	}
	return Resp{Success: false, Message: msg}
}

// Fail writes err with the status its AppError carries and aborts the chain.
// Untyped errors become a generic 500; the cause is attached to the context
// for the access log.
func Fail(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	msg := ""
	var ae *domain.AppError
	if errors.As(err, &ae) && code < http.StatusInternalServerError {
		msg = ae.Msg
	}
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(code, Error(code, msg))
}

// Abort is Fail for middleware that has no error value, only a status.
func Abort(c *gin.Context, code int) {
	c.AbortWithStatusJSON(code, Error(code, ""))
}
