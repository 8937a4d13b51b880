package ports

import (
	"context"
	"time"

	"github.com/mardens/authgate/internal/core/domain"
)

// TokenCache remembers users for recently validated tokens.
// Get returns (nil, nil) on a miss.
type TokenCache interface {
	Get(ctx context.Context, token string) (*domain.User, error)
	Set(ctx context.Context, token string, user *domain.User, ttl time.Duration) error
}
