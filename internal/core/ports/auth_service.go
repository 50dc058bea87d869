package ports

import (
	"context"

	"github.com/jyotish/auth-service/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	User         domain.PublicAccount
}

// RefreshResult is returned by Refresh. It carries no user payload.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// ValidationResult reports whether a token is usable. An invalid token is a
// normal result, not an error.
type ValidationResult struct {
	Valid   bool
	Message string
	Email   string
	UserID  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	Validate(ctx context.Context, token string) ValidationResult
	Me(ctx context.Context, accessToken string) (*domain.PublicAccount, error)
}
