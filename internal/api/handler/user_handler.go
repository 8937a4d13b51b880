package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

type UserHandler struct {
	authService ports.AuthService
	audit       ports.AuditReader
}

// NewUserHandler returns a UserHandler. audit may be nil when the audit
// trail is disabled.
func NewUserHandler(authService ports.AuthService, audit ports.AuditReader) *UserHandler {
	return &UserHandler{authService: authService, audit: audit}
}

// Me returns the authenticated user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     TokenHeader
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns the identity service's users, optionally filtered by name.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     TokenHeader
// @Param        query  query     string  false  "Username filter"
// @Success      200    {array}   userResponse
// @Failure      401    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	if _, err := CurrentUser(c); err != nil {
		return err
	}

	users, err := h.authService.Users(c.Request().Context(), c.QueryParam("query"))
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "identity service unavailable"})
		}
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Activity returns the authenticated user's recent gate decisions. Rejections
// carry no username and are never listed.
//
// @Summary      Recent authentication activity
// @Tags         users
// @Produce      json
// @Security     TokenHeader
// @Param        limit  query     int  false  "Maximum number of events (1-100)"
// @Success      200    {array}   authEventResponse
// @Failure      401    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /api/me/activity [get]
func (h *UserHandler) Activity(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	if h.audit == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "audit trail disabled"})
	}

	limit := int64(defaultActivityLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > maxActivityLimit {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
		}
		limit = n
	}

	events, err := h.audit.RecentEvents(c.Request().Context(), user.Username, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthEventResponses(events))
}
