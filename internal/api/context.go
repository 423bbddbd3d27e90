package api

import (
	"context"

	"lifesure/internal/lifecycle"
)

type contextKey string

const actorKey contextKey = "actor"

// withActor stores the authenticated actor on the request context.
func withActor(ctx context.Context, actor lifecycle.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// actorFrom returns the authenticated actor, reporting whether one is set.
func actorFrom(ctx context.Context) (lifecycle.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(lifecycle.Actor)
	return actor, ok
}
