package ports

import (
	"context"

	"github.com/mardens/authgate/internal/core/domain"
)

// TokenAuthenticator resolves a bearer token to exactly one user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token, userAgent string) (*domain.User, error)
}

type AuthService interface {
	TokenAuthenticator
	Login(ctx context.Context, username, password, userAgent string) (string, error)
	Register(ctx context.Context, username, password, userAgent string) error
	Users(ctx context.Context, query string) ([]domain.User, error)
}
