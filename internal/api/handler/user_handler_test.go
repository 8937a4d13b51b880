package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mardens/authgate/internal/api/middleware"
	"github.com/mardens/authgate/internal/core/domain"
)

type stubAuditReader struct {
	fn func(ctx context.Context, username string, limit int64) ([]domain.AuthEvent, error)
}

func (s *stubAuditReader) RecentEvents(ctx context.Context, username string, limit int64) ([]domain.AuthEvent, error) {
	return s.fn(ctx, username, limit)
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, u *domain.User) echo.Context {
	c := e.NewContext(req, rec)
	c.Set(middleware.IdentityKey, u)
	return c
}

func TestCurrentUser_BeforeGate(t *testing.T) {
	e := newEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if _, err := CurrentUser(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCurrentUser_FromRequestContext(t *testing.T) {
	e := newEcho()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(domain.WithIdentity(req.Context(), &domain.User{Username: "alice"}))
	c := e.NewContext(req, httptest.NewRecorder())

	u, err := CurrentUser(c)
	if err != nil || u.Username != "alice" {
		t.Fatalf("CurrentUser: %v %+v", err, u)
	}
}

func TestUserHandler_Me(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubAuthService{}, nil)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/api/me", nil), rec, &domain.User{
		ID: 5, Username: "alice", Password: "hash", IsAdmin: true,
	})

	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hash") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["is_admin"] != true {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Me_Unauthenticated(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubAuthService{}, nil)
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/me", nil), httptest.NewRecorder())

	if err := handler.Me(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUserHandler_List(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		usersFn: func(ctx context.Context, query string) ([]domain.User, error) {
			if query != "al" {
				t.Fatalf("unexpected query %q", query)
			}
			return []domain.User{{ID: 1, Username: "alice", Password: "x"}, {ID: 2, Username: "alan"}}, nil
		},
	}
	handler := NewUserHandler(stub, nil)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/api/users?query=al", nil), rec, &domain.User{Username: "alice"})

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[1]["username"] != "alan" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp[0]["password"]; ok {
		t.Fatalf("password leaked")
	}
}

func TestUserHandler_List_UpstreamUnavailable(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		usersFn: func(ctx context.Context, query string) ([]domain.User, error) {
			return nil, &domain.AuthError{Kind: domain.ErrUpstreamUnavailable, Status: 500}
		},
	}
	handler := NewUserHandler(stub, nil)

	rec := httptest.NewRecorder()
	_ = handler.List(authedContext(e, httptest.NewRequest(http.MethodGet, "/api/users", nil), rec, &domain.User{Username: "alice"}))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestUserHandler_Activity(t *testing.T) {
	e := newEcho()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reader := &stubAuditReader{fn: func(ctx context.Context, username string, limit int64) ([]domain.AuthEvent, error) {
		if username != "alice" || limit != 5 {
			t.Fatalf("unexpected args: %s %d", username, limit)
		}
		return []domain.AuthEvent{{Username: "alice", Outcome: domain.OutcomeForwarded, Path: "/api/me", At: at}}, nil
	}}
	handler := NewUserHandler(&stubAuthService{}, reader)

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodGet, "/api/me/activity?limit=5", nil), rec, &domain.User{Username: "alice"})

	if err := handler.Activity(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"outcome":"forwarded"`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandler_Activity_BadLimit(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubAuthService{}, &stubAuditReader{fn: func(ctx context.Context, username string, limit int64) ([]domain.AuthEvent, error) {
		t.Fatalf("should not be called")
		return nil, nil
	}})

	for _, q := range []string{"0", "101", "abc"} {
		rec := httptest.NewRecorder()
		_ = handler.Activity(authedContext(e, httptest.NewRequest(http.MethodGet, "/api/me/activity?limit="+q, nil), rec, &domain.User{Username: "alice"}))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestUserHandler_Activity_Disabled(t *testing.T) {
	e := newEcho()
	handler := NewUserHandler(&stubAuthService{}, nil)

	rec := httptest.NewRecorder()
	_ = handler.Activity(authedContext(e, httptest.NewRequest(http.MethodGet, "/api/me/activity", nil), rec, &domain.User{Username: "alice"}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
