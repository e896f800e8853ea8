package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"

	"campusconnect/internal/core/auth"
	"campusconnect/internal/domain"
	resp "campusconnect/internal/transport/http/response"
)

const (
	KeyCaller   = "caller"
	keyResolved = "caller.resolved"
	keyAuthErr  = "caller.err"
)

// Authenticator turns a bearer token into the current user row.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Caller returns the user resolved for this request, nil when anonymous.
func Caller(c *gin.Context) *domain.User {
	if v, ok := c.Get(KeyCaller); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// Resolve authenticates once per request and memoizes the result, so a
// group gate and a route gate don't hit the database twice.
func Resolve(c *gin.Context, a Authenticator) (*domain.User, error) {
	if c.GetBool(keyResolved) {
		if v, ok := c.Get(keyAuthErr); ok {
			return nil, v.(error)
		}
		return Caller(c), nil
	}
	c.Set(keyResolved, true)

	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		err := domain.Unauthenticated("not authorized, no token")
		c.Set(keyAuthErr, err)
		return nil, err
	}
	u, err := a.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.Set(keyAuthErr, err)
		return nil, err
	}
	c.Set(KeyCaller, u)
	return u, nil
}

// HasRole 空列表表示不限角色
func HasRole(u *domain.User, roles []domain.Role) bool {
	return len(roles) == 0 || (u != nil && slices.Contains(roles, u.Role))
}

// RequireAuth rejects the request unless the caller is authenticated and
// holds one of roles.
func RequireAuth(a Authenticator, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := Resolve(c, a)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		if !HasRole(u, roles) {
			resp.Fail(c, domain.Forbidden("role "+string(u.Role)+" is not allowed here"))
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when the token checks out and otherwise
// carries on anonymously.
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = Resolve(c, a)
		c.Next()
	}
}
