package auth

import (
	"context"

	"inbox-platform/internal/user"
)

type ctxKey int

const ctxUser ctxKey = iota

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// CurrentUser returns the authenticated user placed by RequireUser.
func CurrentUser(ctx context.Context) (*user.User, error) {
	if u, ok := ctx.Value(ctxUser).(*user.User); ok && u != nil {
		return u, nil
	}
	return nil, ErrUnauthorized
}
