package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jyotish/auth-service/internal/core/domain"
	"github.com/jyotish/auth-service/internal/core/ports"
)

const invalidTokenMessage = "Token invalid or expired"

// AuthService implements registration, login, token refresh and validation.
type AuthService struct {
	repo      ports.AccountRepository
	tokens    *TokenCodec
	passwords PasswordHasher
	events    ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	repo ports.AccountRepository,
	tokens *TokenCodec,
	passwords PasswordHasher,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AuthService {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &AuthService{
		repo:      repo,
		tokens:    tokens,
		passwords: passwords,
		events:    events,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if err := validateRegistration(email, username, in.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	exists, err = s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	// The store's unique indexes are authoritative; a concurrent registration
	// that passed the checks above fails here with a duplicate error.
	account, err := s.repo.Save(ctx, domain.NewAccount(email, username, hash, in.FullName, s.now()))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("register: save account: %w", err)
	}

	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", account.ID).Str("username", account.Username).Msg("account registered")
	s.publish(ctx, domain.AuthEvent{
		Type:      domain.EventUserRegistered,
		AccountID: account.ID,
		Email:     account.Email,
	})

	return authResult(pair, account), nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.loginFailed(ctx, identifier, "", "unknown_identifier")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: find account: %w", err)
	}

	if !account.IsActive {
		s.loginFailed(ctx, identifier, account.ID, "deactivated")
		return nil, domain.ErrAccountDeactivated
	}

	if !s.passwords.Verify(password, account.PasswordHash) {
		s.loginFailed(ctx, identifier, account.ID, "bad_password")
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", account.ID).Msg("account logged in")
	s.publish(ctx, domain.AuthEvent{
		Type:      domain.EventUserLoggedIn,
		AccountID: account.ID,
		Email:     account.Email,
	})

	return authResult(pair, account), nil
}

// Refresh rotates a refresh token into a new access/refresh pair. Access
// tokens are rejected here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.RefreshResult, error) {
	claims, err := s.tokens.ParseAs(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		s.log.Debug().Err(err).Msg("refresh token rejected")
		return nil, domain.ErrInvalidToken
	}

	account, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("refresh: find account: %w", err)
	}

	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	s.publish(ctx, domain.AuthEvent{
		Type:      domain.EventTokenRefreshed,
		AccountID: account.ID,
		Email:     account.Email,
	})

	return &ports.RefreshResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}, nil
}

// Validate never fails: an unusable token is reported as Valid=false.
func (s *AuthService) Validate(_ context.Context, token string) ports.ValidationResult {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return ports.ValidationResult{Valid: false, Message: invalidTokenMessage}
	}
	return ports.ValidationResult{
		Valid:  true,
		Email:  claims.Subject,
		UserID: claims.UserID,
	}
}

// Me returns the public view of the account an access token was issued to.
func (s *AuthService) Me(ctx context.Context, accessToken string) (*domain.PublicAccount, error) {
	claims, err := s.tokens.ParseAs(accessToken, domain.TokenTypeAccess)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	account, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("me: find account: %w", err)
	}

	view := account.Public()
	return &view, nil
}

func (s *AuthService) loginFailed(ctx context.Context, identifier, accountID, reason string) {
	s.log.Info().Str("reason", reason).Msg("login rejected")
	s.publish(ctx, domain.AuthEvent{
		Type:       domain.EventUserLoginFailed,
		AccountID:  accountID,
		Identifier: identifier,
		Reason:     reason,
	})
}

// publish hands the event off; audit failures never fail the flow.
func (s *AuthService) publish(ctx context.Context, event domain.AuthEvent) {
	event.OccurredAt = s.now()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to publish audit event")
	}
}

func validateRegistration(email, username, password string) error {
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return fmt.Errorf("%w: email must be a valid email", domain.ErrValidation)
	case utf8.RuneCountInString(username) < domain.UsernameMinLen,
		utf8.RuneCountInString(username) > domain.UsernameMaxLen:
		return fmt.Errorf("%w: username must be between %d and %d characters",
			domain.ErrValidation, domain.UsernameMinLen, domain.UsernameMaxLen)
	case password == "":
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	case len(password) > MaxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, MaxPasswordBytes)
	}
	return nil
}

func authResult(pair domain.TokenPair, account *domain.Account) *ports.AuthResult {
	return &ports.AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		User:         account.Public(),
	}
}
