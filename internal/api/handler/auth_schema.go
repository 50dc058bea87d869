package handler

import (
	"github.com/jyotish/auth-service/internal/core/domain"
	"github.com/jyotish/auth-service/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"` // email or username
	Password   string `json:"password"   validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// --- Response types ---

type authResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	TokenType    string                `json:"token_type"`
	User         *domain.PublicAccount `json:"user,omitempty"`
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Email   string `json:"email,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

type serviceHealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// --- Mappers ---

func toAuthResponse(res *ports.AuthResult) authResponse {
	user := res.User
	return authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    res.TokenType,
		User:         &user,
	}
}

func toRefreshResponse(res *ports.RefreshResult) authResponse {
	return authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    res.TokenType,
	}
}

func toValidateResponse(res ports.ValidationResult) validateResponse {
	return validateResponse{
		Valid:   res.Valid,
		Message: res.Message,
		Email:   res.Email,
		UserID:  res.UserID,
	}
}
