package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jyotish/auth-service/internal/api/middleware"
	"github.com/jyotish/auth-service/internal/core/domain"
)

// ctxAccessToken returns the claims and raw access token injected by the
// Auth middleware. Missing values mean the middleware did not run.
func ctxAccessToken(c echo.Context) (*domain.Claims, string, error) {
	claims, _ := c.Get(middleware.ContextKeyClaims).(*domain.Claims)
	token, _ := c.Get(middleware.ContextKeyToken).(string)
	if claims == nil || token == "" {
		return nil, "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, token, nil
}
