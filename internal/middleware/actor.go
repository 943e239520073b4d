package middleware

import (
	"context"
	"net/http"
)

// DefaultActor is recorded on audit entries when no X-Actor header is set.
const DefaultActor = "system"

const headerActor = "X-Actor"

type actorCtxKey struct{}

// Actor is middleware that extracts the acting user from the X-Actor header
// and stores it in the request context. Falls back to DefaultActor if absent.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(headerActor)
		if actor == "" {
			actor = DefaultActor
		}
		ctx := context.WithValue(r.Context(), actorCtxKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor stored in ctx, or DefaultActor if absent.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorCtxKey{}).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
