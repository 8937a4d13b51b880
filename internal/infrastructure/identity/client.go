// Package identity is the HTTP client for the remote identity service.
//
// A single Client wraps one long-lived *http.Client and is safe for
// concurrent use by every request the gate handles.
package identity

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mardens/authgate/internal/api/metrics"
	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes bounds how much of an upstream response is read.
	maxBodyBytes = 1 << 20

	authPath     = "/auth/"
	usersPath    = "/auth/users"
	registerPath = "/auth/register"
)

// Config captures the settings for talking to the identity service.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client talks to the identity service.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.IdentityProvider = (*Client)(nil)

// NewClient builds a Client with its own pooled transport.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("identity: invalid base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	return &Client{
		baseURL: base.String(),
		http:    &http.Client{Timeout: timeout, Transport: transport},
		log:     log.With().Str("component", "identity_client").Logger(),
	}, nil
}

// authResponse is the envelope returned by POST /auth/ and /auth/register.
type authResponse struct {
	Success bool         `json:"success"`
	Message *string      `json:"message"`
	Token   *string      `json:"token"`
	User    *domain.User `json:"user"`
}

func (r *authResponse) message(fallback string) string {
	if r.Message != nil && *r.Message != "" {
		return *r.Message
	}
	return fallback
}

// VerifyToken asks the identity service whether token is valid.
func (c *Client) VerifyToken(ctx context.Context, token, userAgent string) (*ports.TokenVerification, error) {
	c.log.Debug().Msg("verifying token")

	var resp authResponse
	status, err := c.postForm(ctx, "verify_token", authPath, url.Values{"token": {token}}, userAgent, &resp)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		msg := resp.message("Unknown authentication error")
		c.log.Warn().Int("status", status).Str("message", msg).Msg("token rejected by identity service")
		return nil, &domain.AuthError{Kind: domain.ErrInvalidToken, Message: msg, Status: status}
	}

	c.log.Debug().Bool("with_user", resp.User != nil).Msg("token accepted")
	return &ports.TokenVerification{User: resp.User}, nil
}

// VerifyCredentials exchanges a username and password for a token.
func (c *Client) VerifyCredentials(ctx context.Context, username, password, userAgent string) (string, error) {
	c.log.Debug().Str("username", username).Msg("verifying credentials")

	form := url.Values{"username": {username}, "password": {password}}
	var resp authResponse
	status, err := c.postForm(ctx, "verify_credentials", authPath, form, userAgent, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Success {
		msg := resp.message("")
		c.log.Warn().Str("username", username).Str("message", msg).Msg("credentials rejected")
		return "", &domain.AuthError{Kind: domain.ErrInvalidCredentials, Message: msg, Status: status}
	}
	if resp.Token == nil || *resp.Token == "" {
		c.log.Warn().Str("username", username).Msg("credentials accepted but no token returned")
		return "", &domain.AuthError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: "credentials accepted but no token was issued",
			Status:  status,
		}
	}

	c.log.Info().Str("username", username).Msg("credentials accepted")
	return *resp.Token, nil
}

// Register creates a new account on the identity service.
func (c *Client) Register(ctx context.Context, username, password, userAgent string) error {
	form := url.Values{"username": {username}, "password": {password}}
	var resp authResponse
	status, err := c.postForm(ctx, "register", registerPath, form, userAgent, &resp)
	if err != nil {
		return err
	}

	if !resp.Success {
		msg := resp.message("")
		c.log.Warn().Str("username", username).Str("message", msg).Msg("registration rejected")
		return &domain.AuthError{Kind: domain.ErrRegistrationRejected, Message: msg, Status: status}
	}

	c.log.Info().Str("username", username).Msg("user registered")
	return nil
}

// ListUsers returns every user known to the identity service.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.getJSON(ctx, "list_users", c.baseURL+usersPath, &users); err != nil {
		return nil, err
	}
	c.log.Debug().Int("count", len(users)).Msg("users listed")
	return users, nil
}

// QueryUsers returns the users whose name matches query.
func (c *Client) QueryUsers(ctx context.Context, query string) ([]domain.User, error) {
	endpoint := c.baseURL + usersPath + "?" + url.Values{"query": {query}}.Encode()

	var users []domain.User
	if err := c.getJSON(ctx, "query_users", endpoint, &users); err != nil {
		return nil, err
	}
	c.log.Debug().Int("count", len(users)).Str("query", query).Msg("users queried")
	return users, nil
}

// Ping checks that the identity service answers HTTP at all. Any response,
// whatever its status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+authPath, nil)
	if err != nil {
		return fmt.Errorf("identity: build ping: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return &domain.AuthError{Kind: domain.ErrUpstreamUnavailable, Message: "ping", Cause: err}
	}
	_ = res.Body.Close()
	return nil
}

func (c *Client) postForm(ctx context.Context, op, path string, form url.Values, userAgent string, out *authResponse) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("identity: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	status, body, err := c.do(op, req)
	if err != nil {
		return status, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.log.Error().Err(err).Str("op", op).Int("status", status).Msg("malformed identity service response")
		return status, &domain.AuthError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: "malformed response",
			Status:  status,
			Body:    string(body),
			Cause:   err,
		}
	}
	return status, nil
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("identity: build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(op, req)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		c.log.Warn().Str("op", op).Int("status", status).Msg("identity service returned an error status")
		return &domain.AuthError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: http.StatusText(status),
			Status:  status,
			Body:    string(body),
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.AuthError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: "malformed response",
			Status:  status,
			Body:    string(body),
			Cause:   err,
		}
	}
	return nil
}

// do sends req and reads its body. Transport failures are reported as
// ErrUpstreamUnavailable; the status is returned untouched otherwise.
func (c *Client) do(op string, req *http.Request) (int, []byte, error) {
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		c.log.Error().Err(err).Str("op", op).Msg("identity service request failed")
		return 0, nil, &domain.AuthError{Kind: domain.ErrUpstreamUnavailable, Message: "send request", Cause: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	metrics.UpstreamRequestDuration.WithLabelValues(op, statusClass(res.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return res.StatusCode, nil, &domain.AuthError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: "read response body",
			Status:  res.StatusCode,
			Cause:   err,
		}
	}

	c.log.Trace().Str("op", op).Int("status", res.StatusCode).Msg("identity service responded")
	return res.StatusCode, body, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
