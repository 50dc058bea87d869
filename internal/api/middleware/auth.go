package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jyotish/auth-service/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextKeyClaims = "claims"
	ContextKeyToken  = "token"
	ContextKeyRole   = "role"
)

// TokenParser verifies a token and checks its type.
type TokenParser interface {
	ParseAs(token string, want domain.TokenType) (*domain.Claims, error)
}

// Auth accepts only valid access tokens and injects their claims into the
// echo context. Refresh tokens are rejected.
func Auth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			token, ok := BearerToken(authHeader)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.ParseAs(token, domain.TokenTypeAccess)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyClaims, claims)
			c.Set(ContextKeyToken, token)
			c.Set(ContextKeyRole, claims.Role)

			return next(c)
		}
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
