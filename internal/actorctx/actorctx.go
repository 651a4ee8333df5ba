// Package actorctx carries the resolved caller on a context.Context so code below
// the HTTP layer can see who is acting without depending on gin.
package actorctx

import (
	"context"

	"github.com/geocoder89/schedulehub/internal/auth"
)

type key struct{}

func WithCaller(ctx context.Context, c auth.Caller) context.Context {
	return context.WithValue(ctx, key{}, c)
}

// CallerFrom returns the caller stored on ctx, or auth.Anonymous when none was resolved.
func CallerFrom(ctx context.Context) auth.Caller {
	if c, ok := ctx.Value(key{}).(auth.Caller); ok && c != nil {
		return c
	}
	return auth.Anonymous{}
}

func UserIDFrom(ctx context.Context) (string, bool) {
	return auth.UserID(CallerFrom(ctx))
}
