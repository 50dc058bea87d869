package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jyotish/auth-service/internal/api/metrics"
	"github.com/jyotish/auth-service/internal/api/middleware"
	"github.com/jyotish/auth-service/internal/core/domain"
	"github.com/jyotish/auth-service/internal/core/ports"
)

const serviceName = "auth-service"

// AuthHandler exposes the authentication flows over HTTP. Service errors are
// returned unchanged and rendered by the API's HTTPErrorHandler.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new account and returns a token pair.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegisterTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	metrics.RegisterTotal.WithLabelValues(registerResult(err)).Inc()
	if err != nil {
		return err
	}

	countIssued()
	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// Login authenticates with an email or username and returns a token pair.
//
// @Summary      Login with email/username and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.authService.Login(c.Request().Context(), req.Identifier, req.Password)
	metrics.LoginTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	countIssued()
	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh access token using refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	metrics.RefreshTotal.WithLabelValues(refreshResult(err)).Inc()
	if err != nil {
		return err
	}

	countIssued()
	return c.JSON(http.StatusOK, toRefreshResponse(res))
}

// Validate reports whether the bearer token is valid. An invalid or missing
// token is a 200 with valid=false.
//
// @Summary      Validate a JWT token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  validateResponse
// @Router       /api/auth/validate [get]
func (h *AuthHandler) Validate(c echo.Context) error {
	token, _ := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))

	res := h.authService.Validate(c.Request().Context(), token)
	if res.Valid {
		metrics.TokenValidationTotal.WithLabelValues("valid").Inc()
	} else {
		metrics.TokenValidationTotal.WithLabelValues("invalid").Inc()
	}
	return c.JSON(http.StatusOK, toValidateResponse(res))
}

// Me returns the profile of the authenticated account.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.PublicAccount
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	_, token, err := ctxAccessToken(c)
	if err != nil {
		return err
	}

	profile, err := h.authService.Me(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Health reports that the auth service is up.
//
// @Summary      Auth service health
// @Tags         auth
// @Produce      json
// @Success      200  {object}  serviceHealthResponse
// @Router       /api/auth/health [get]
func (h *AuthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, serviceHealthResponse{Status: "healthy", Service: serviceName})
}

func countIssued() {
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenTypeAccess)).Inc()
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenTypeRefresh)).Inc()
}

func registerResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountDeactivated):
		return "deactivated"
	default:
		return "error"
	}
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
