package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mardens/authgate/internal/api/metrics"
	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

// AuthService validates tokens against the identity service and proxies its
// account operations.
type AuthService struct {
	provider ports.IdentityProvider
	cache    ports.TokenCache
	cacheTTL time.Duration
	log      zerolog.Logger

	sf singleflight.Group
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService returns an AuthService. cache may be nil, and a
// non-positive cacheTTL disables caching as well.
func NewAuthService(provider ports.IdentityProvider, cache ports.TokenCache, cacheTTL time.Duration, log zerolog.Logger) *AuthService {
	if cacheTTL <= 0 {
		cache = nil
	}
	return &AuthService{
		provider: provider,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Authenticate resolves token to exactly one user or returns an error
// wrapping one of the domain sentinels.
func (s *AuthService) Authenticate(ctx context.Context, token, userAgent string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	if s.cache == nil {
		return s.verify(ctx, token, userAgent)
	}
	if user := s.cached(ctx, token); user != nil {
		return user, nil
	}
	return s.verifyShared(ctx, token, userAgent)
}

// verifyShared lets concurrent cache misses for the same token and user agent
// share one upstream call. The shared call is detached from the cancellation
// of whichever caller started it and stays bounded by the client timeout. Each
// caller stops waiting when its own context ends.
func (s *AuthService) verifyShared(ctx context.Context, token, userAgent string) (*domain.User, error) {
	key := domain.TokenFingerprint(token) + "|" + userAgent
	ch := s.sf.DoChan(key, func() (any, error) {
		return s.verify(context.WithoutCancel(ctx), token, userAgent)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.log.Trace().Msg("token verification shared with a concurrent request")
		}
		// Each request gets its own copy so handlers cannot mutate a shared value.
		user := *res.Val.(*domain.User)
		return &user, nil
	}
}

func (s *AuthService) verify(ctx context.Context, token, userAgent string) (*domain.User, error) {
	res, err := s.provider.VerifyToken(ctx, token, userAgent)
	if err != nil {
		return nil, err
	}

	user := res.User
	if user == nil {
		user, err = s.resolve(ctx, token)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, token, user, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache validated token")
		}
	}
	return user, nil
}

// resolve finds the user for a token the identity service accepted without
// returning a profile, using the username embedded in the token.
func (s *AuthService) resolve(ctx context.Context, token string) (*domain.User, error) {
	hint, ok := domain.ParseTokenHint(token)
	if !ok {
		return nil, &domain.AuthError{Kind: domain.ErrIdentityUnresolved, Message: "token carries no username"}
	}

	users, err := s.provider.QueryUsers(ctx, hint.Username)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	for i := range users {
		if users[i].MatchesUsername(hint.Username) {
			s.log.Debug().Str("username", users[i].Username).Msg("identity resolved from token")
			return &users[i], nil
		}
	}
	return nil, &domain.AuthError{
		Kind:    domain.ErrIdentityUnresolved,
		Message: fmt.Sprintf("no user named %q", hint.Username),
	}
}

func (s *AuthService) cached(ctx context.Context, token string) *domain.User {
	if s.cache == nil {
		return nil
	}
	user, err := s.cache.Get(ctx, token)
	switch {
	case err != nil:
		metrics.TokenCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Msg("token cache lookup failed, asking identity service")
		return nil
	case user == nil:
		metrics.TokenCacheTotal.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.TokenCacheTotal.WithLabelValues("hit").Inc()
		return user
	}
}

// Login exchanges credentials for a token issued by the identity service.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}
	return s.provider.VerifyCredentials(ctx, username, password, userAgent)
}

// Register creates an account on the identity service.
func (s *AuthService) Register(ctx context.Context, username, password, userAgent string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return &domain.AuthError{Kind: domain.ErrRegistrationRejected, Message: "username and password are required"}
	}
	return s.provider.Register(ctx, username, password, userAgent)
}

// Users lists every user, or only those matching query when it is non-empty.
func (s *AuthService) Users(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.provider.ListUsers(ctx)
	}
	return s.provider.QueryUsers(ctx, query)
}
