package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxActor  contextKey = "actor"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext returns the authenticated caller, or the anonymous actor.
func ActorFromContext(ctx context.Context) auth.Actor {
	if ctx == nil {
		return auth.Actor{}
	}
	if v, ok := ctx.Value(ctxActor).(auth.Actor); ok {
		return v
	}
	return auth.Actor{}
}

// WithActor injects the caller into the context for downstream handlers.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActor, actor)
	if actor.IsAnonymous() {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}

// ViewerFromRequest identifies the caller for view deduplication: the user
// when authenticated, otherwise the client address.
func ViewerFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID
	}
	if ip := clientIP(r); ip != "" {
		return "ip:" + ip
	}
	return ""
}
