package internal

import (
	"context"
	"time"
)

type sessionUserKey struct{}

// UserIDFromContext returns the id of the signed-in user that RequireSession
// resolved from the session cookie, or "" outside a protected route.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(sessionUserKey{}).(string)
	return userID
}

// ContextWithUserID stores the session user id for downstream handlers.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, sessionUserKey{}, userID)
}

// WithTimeout bounds ctx by duration, falling back to 5 seconds when it is not positive.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
