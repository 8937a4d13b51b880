package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mardens/authgate/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid authentication token"), 401, "missing or invalid authentication token"},
		{"unauthenticated", domain.ErrUnauthenticated, 401, "authentication required"},
		{"wrapped invalid token", &domain.AuthError{Kind: domain.ErrInvalidToken, Message: "secret detail"}, 401, "authentication required"},
		{"upstream", &domain.AuthError{Kind: domain.ErrUpstreamUnavailable, Body: "<html>"}, 502, "identity service unavailable"},
		{"unexpected", errors.New("boom"), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/me", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, resp.Error)
			}
		})
	}
}
