package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mardens/authgate/internal/api/middleware"
	"github.com/mardens/authgate/internal/core/domain"
)

// CurrentUser returns the user the auth gate attached to this request. It
// fails with domain.ErrUnauthenticated when the gate did not run.
func CurrentUser(c echo.Context) (*domain.User, error) {
	if u, ok := c.Get(middleware.IdentityKey).(*domain.User); ok && u != nil {
		return u, nil
	}
	return domain.IdentityFromContext(c.Request().Context())
}
