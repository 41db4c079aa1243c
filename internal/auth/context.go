package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

type currentUserKey struct{}

// WithCurrentUser attaches the request-scoped user to ctx.
func WithCurrentUser(ctx context.Context, u *CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey{}, u)
}

// FromContext returns the request-scoped user, or an anonymous one when none is attached.
func FromContext(ctx context.Context) *CurrentUser {
	if ctx != nil {
		if u, ok := ctx.Value(currentUserKey{}).(*CurrentUser); ok && u != nil {
			return u
		}
	}
	return Anonymous()
}

// UserFrom extracts the current user from the Gin request context.
// This is set by middleware.Authenticate
func UserFrom(c *gin.Context) *CurrentUser {
	return FromContext(c.Request.Context())
}
