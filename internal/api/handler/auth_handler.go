package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mardens/authgate/internal/api/middleware"
	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

// CookieOptions controls the token cookie set on successful login.
type CookieOptions struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	authService      ports.AuthService
	cookie           CookieOptions
	defaultUserAgent string
}

func NewAuthHandler(authService ports.AuthService, cookie CookieOptions, defaultUserAgent string) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultTokenCookie
	}
	if defaultUserAgent == "" {
		defaultUserAgent = middleware.DefaultUserAgent
	}
	return &AuthHandler{authService: authService, cookie: cookie, defaultUserAgent: defaultUserAgent}
}

type credentialsRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=128"`
	Password string `json:"password" form:"password" validate:"required,max=256"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a token issued by the identity service.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password, h.userAgent(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "identity service unavailable"})
		}
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, loginResponse{Token: token})
}

// Register creates an account on the identity service.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "User registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.authService.Register(c.Request().Context(), req.Username, req.Password, h.userAgent(c)); err != nil {
		switch {
		case errors.Is(err, domain.ErrRegistrationRejected):
			msg := domain.UpstreamMessage(err)
			if msg == "" {
				msg = "registration rejected"
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "identity service unavailable"})
		}
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "user registered"})
}

func (h *AuthHandler) userAgent(c echo.Context) string {
	if ua := c.Request().UserAgent(); ua != "" {
		return ua
	}
	return h.defaultUserAgent
}
