package domain

import "context"

type identityKey struct{}

// WithIdentity stores the authenticated user in ctx.
func WithIdentity(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFromContext returns the user attached by the auth gate, or
// ErrUnauthenticated when the gate has not run for this request.
func IdentityFromContext(ctx context.Context) (*User, error) {
	u, ok := ctx.Value(identityKey{}).(*User)
	if !ok || u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}
