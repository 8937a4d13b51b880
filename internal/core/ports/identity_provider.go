package ports

import (
	"context"

	"github.com/mardens/authgate/internal/core/domain"
)

// TokenVerification is the identity service's answer to a token check. User
// is nil when the service accepted the token without returning a profile.
type TokenVerification struct {
	User *domain.User
}

// IdentityProvider is the remote identity service.
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token, userAgent string) (*TokenVerification, error)
	VerifyCredentials(ctx context.Context, username, password, userAgent string) (string, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	QueryUsers(ctx context.Context, query string) ([]domain.User, error)
	Register(ctx context.Context, username, password, userAgent string) error
	Ping(ctx context.Context) error
}
