package middleware

import (
	"context"

	"github.com/nguyendm/salemarket-backend/pkg/types"
)

type contextKey string

const (
	ctxAuth   contextKey = "auth_context"
	ctxUserID contextKey = "user_id"
)

// AuthFromContext returns the caller identity seeded by the Auth middleware.
func AuthFromContext(ctx context.Context) (types.AuthContext, bool) {
	if ctx == nil {
		return types.AuthContext{}, false
	}
	if v, ok := ctx.Value(ctxAuth).(types.AuthContext); ok {
		return v, true
	}
	return types.AuthContext{}, false
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// WithAuth injects the caller identity into the context.
func WithAuth(ctx context.Context, auth types.AuthContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAuth, auth)
	return context.WithValue(ctx, ctxUserID, auth.UserID.String())
}
