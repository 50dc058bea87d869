package domain

import "time"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// BearerTokenType is the token_type reported alongside every issued pair.
const BearerTokenType = "Bearer"

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Claims is the decoded, verified payload of a token. Email and Role are only
// populated for access tokens.
type Claims struct {
	ID        string
	Subject   string
	UserID    string
	Email     string
	Role      string
	Type      TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is an access/refresh token pair issued together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
