package domain

import "errors"

// Account and credential errors.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrValidation         = errors.New("validation failed")
)

// ErrInvalidToken is returned by flows that require a usable token
// (refresh, profile lookup) when the presented one is not.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrToken is the parent of every token decoding failure. Use errors.Is(err,
// ErrToken) to detect any of them.
var ErrToken = errors.New("token error")

var (
	ErrTokenInvalid      = &tokenError{msg: "token malformed or signature invalid"}
	ErrTokenExpired      = &tokenError{msg: "token expired"}
	ErrTokenTypeMismatch = &tokenError{msg: "unexpected token type"}
)

type tokenError struct{ msg string }

func (e *tokenError) Error() string { return e.msg }

func (e *tokenError) Unwrap() error { return ErrToken }
