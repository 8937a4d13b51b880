package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mardens/authgate/internal/api/metrics"
	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

const (
	// IdentityKey is the echo.Context key holding the authenticated *domain.User.
	IdentityKey = "identity"

	// DefaultUserAgent is the library identifier the identity service already
	// records for clients that send no User-Agent.
	DefaultUserAgent = "Mardens Actix Auth Library"

	msgMissingToken = "missing or invalid authentication token"
	msgAuthFailed   = "authentication failed"
)

// GateOptions configures Auth. The zero value is usable.
type GateOptions struct {
	Source TokenSource
	// DefaultUserAgent is forwarded upstream when the request has none.
	DefaultUserAgent string
	// ExposeUpstreamErrors adds the identity service's message to 401 bodies.
	ExposeUpstreamErrors bool
	// Skipper lets requests through without authentication.
	Skipper echomiddleware.Skipper
	// Audit receives every decision when set.
	Audit ports.AuditSink
	Log   zerolog.Logger
}

// Auth validates the request's token with the identity service and attaches
// the resulting user to both the echo context and the request context. Any
// failure ends the request with 401 before next runs.
func Auth(authn ports.TokenAuthenticator, opts GateOptions) echo.MiddlewareFunc {
	if opts.DefaultUserAgent == "" {
		opts.DefaultUserAgent = DefaultUserAgent
	}
	if opts.Skipper == nil {
		opts.Skipper = echomiddleware.DefaultSkipper
	}
	source := opts.Source.withDefaults()
	log := opts.Log.With().Str("component", "auth_gate").Logger()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if opts.Skipper(c) {
				return next(c)
			}
			req := c.Request()

			userAgent := req.UserAgent()
			if userAgent == "" {
				userAgent = opts.DefaultUserAgent
			}

			token, from, ok := source.lookup(req)
			if !ok {
				log.Warn().Str("path", req.URL.Path).Msg("request rejected: no authentication token")
				return reject(c, opts, domain.ErrMissingToken, msgMissingToken)
			}
			log.Trace().Str("from", from).Msg("authentication token found")

			user, err := authn.Authenticate(req.Context(), token, userAgent)
			if err != nil {
				ev := log.Warn()
				if errors.Is(err, domain.ErrUpstreamUnavailable) {
					ev = log.Error()
				}
				ev.Err(err).Str("path", req.URL.Path).Str("reason", reasonFor(err)).Msg("request rejected: token not accepted")

				msg := msgAuthFailed
				if opts.ExposeUpstreamErrors {
					if detail := domain.UpstreamMessage(err); detail != "" {
						msg += ": " + detail
					}
				}
				return reject(c, opts, err, msg)
			}

			c.Set(IdentityKey, user)
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), user)))

			metrics.GateDecisionsTotal.WithLabelValues("forwarded").Inc()
			record(c, opts, user.Username, domain.OutcomeForwarded, "")
			log.Debug().Str("username", user.Username).Msg("request authenticated")

			return next(c)
		}
	}
}

func reject(c echo.Context, opts GateOptions, cause error, msg string) error {
	reason := reasonFor(cause)
	metrics.GateDecisionsTotal.WithLabelValues(reason).Inc()
	record(c, opts, "", domain.OutcomeRejected, reason)
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(cause)
}

func record(c echo.Context, opts GateOptions, username string, outcome domain.AuthOutcome, reason string) {
	if opts.Audit == nil {
		return
	}
	req := c.Request()
	opts.Audit.Record(domain.AuthEvent{
		Username:  username,
		Outcome:   outcome,
		Reason:    reason,
		RemoteIP:  c.RealIP(),
		UserAgent: req.UserAgent(),
		Method:    req.Method,
		Path:      req.URL.Path,
		At:        time.Now().UTC(),
	})
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrIdentityUnresolved):
		return "identity_unresolved"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}

// BypassPaths returns a Skipper matching the given paths exactly, or by
// prefix for entries ending in "*".
func BypassPaths(paths ...string) echomiddleware.Skipper {
	exact := make(map[string]struct{}, len(paths))
	var prefixes []string
	for _, p := range paths {
		if strings.HasSuffix(p, "*") {
			prefixes = append(prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		exact[p] = struct{}{}
	}

	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		if _, ok := exact[path]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// DefaultBypassPaths lists endpoints served without authentication.
var DefaultBypassPaths = []string{"/health", "/health/ready", "/metrics", "/swagger/*", "/auth/*"}
