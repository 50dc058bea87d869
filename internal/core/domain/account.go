package domain

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
)

// Account models a registered user of the authentication service.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicAccount is the account view handed back to API callers.
type PublicAccount struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

// NewAccount builds a freshly registered account with the default role and
// status flags. The ID is left empty for the store to assign.
func NewAccount(email, username, passwordHash, fullName string, now time.Time) *Account {
	return &Account{
		Email:        NormalizeEmail(email),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(fullName),
		Role:         RoleUser,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Public returns the public view of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:         a.ID,
		Email:      a.Email,
		Username:   a.Username,
		FullName:   a.FullName,
		Role:       a.Role,
		IsVerified: a.IsVerified,
	}
}

// NormalizeEmail trims and lower-cases an email address. Every lookup and
// every write goes through it so the unique index sees one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
