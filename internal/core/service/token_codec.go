package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jyotish/auth-service/internal/core/domain"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// minSecretLen is 256 bits, the HS256 key size.
	minSecretLen = 32
)

// TokenConfig is the immutable signing configuration of a TokenCodec.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// tokenClaims is the wire form of domain.Claims.
type tokenClaims struct {
	UserID string           `json:"userId"`
	Email  string           `json:"email,omitempty"`
	Role   string           `json:"role,omitempty"`
	Type   domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies HS256-signed access and refresh tokens.
// It is safe for concurrent use.
type TokenCodec struct {
	cfg TokenConfig
	key []byte
	now func() time.Time
	log zerolog.Logger
}

type TokenCodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// WithTokenLogger sets the logger used to report rejected tokens.
func WithTokenLogger(log zerolog.Logger) TokenCodecOption {
	return func(c *TokenCodec) { c.log = log }
}

func NewTokenCodec(cfg TokenConfig, opts ...TokenCodecOption) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token codec: secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	c := &TokenCodec{
		cfg: cfg,
		key: []byte(cfg.Secret),
		now: time.Now,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(c.key) < minSecretLen {
		c.log.Warn().Int("secret_bytes", len(c.key)).Msg("jwt secret is shorter than 256 bits")
	}
	return c, nil
}

// IssueAccessToken signs an access token carrying the account's id, email and role.
func (c *TokenCodec) IssueAccessToken(userID, email, role string) (string, error) {
	return c.sign(tokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   domain.TokenTypeAccess,
	}, email, c.cfg.AccessTTL)
}

// IssueRefreshToken signs a refresh token. It carries no role.
func (c *TokenCodec) IssueRefreshToken(userID, email string) (string, error) {
	return c.sign(tokenClaims{
		UserID: userID,
		Type:   domain.TokenTypeRefresh,
	}, email, c.cfg.RefreshTTL)
}

// IssuePair mints a fresh access and refresh token for the account.
func (c *TokenCodec) IssuePair(account *domain.Account) (domain.TokenPair, error) {
	access, err := c.IssueAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := c.IssueRefreshToken(account.ID, account.Email)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    domain.BearerTokenType,
	}, nil
}

func (c *TokenCodec) sign(claims tokenClaims, subject string, ttl time.Duration) (string, error) {
	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.cfg.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// Parse verifies the signature and expiry of a token and decodes its claims.
// Every failure wraps domain.ErrToken.
func (c *TokenCodec) Parse(token string) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.cfg.Issuer))
	}

	var tc tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	if err := tc.validate(); err != nil {
		return nil, err
	}
	return tc.toDomain(), nil
}

// ParseAs is Parse plus a check that the token is of the wanted type.
func (c *TokenCodec) ParseAs(token string, want domain.TokenType) (*domain.Claims, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: want %s, got %s", domain.ErrTokenTypeMismatch, want, claims.Type)
	}
	return claims, nil
}

// IsValid reports whether the token has a valid signature and has not
// expired. It never fails; the reason for a rejection is only logged.
func (c *TokenCodec) IsValid(token string) bool {
	if _, err := c.Parse(token); err != nil {
		c.log.Debug().Err(err).Msg("token rejected")
		return false
	}
	return true
}

// ExtractSubjectEmail returns the token subject, the account email.
func (c *TokenCodec) ExtractSubjectEmail(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractUserID returns the userId claim.
func (c *TokenCodec) ExtractUserID(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// validate checks the required fields for the token's type.
func (tc *tokenClaims) validate() error {
	if !tc.Type.Valid() {
		return fmt.Errorf("%w: unknown token type %q", domain.ErrTokenInvalid, tc.Type)
	}
	if tc.UserID == "" || tc.Subject == "" {
		return fmt.Errorf("%w: missing subject or userId", domain.ErrTokenInvalid)
	}
	if tc.Type == domain.TokenTypeAccess && tc.Role == "" {
		return fmt.Errorf("%w: access token without role", domain.ErrTokenInvalid)
	}
	return nil
}

func (tc *tokenClaims) toDomain() *domain.Claims {
	claims := &domain.Claims{
		ID:      tc.ID,
		Subject: tc.Subject,
		UserID:  tc.UserID,
		Email:   tc.Email,
		Role:    tc.Role,
		Type:    tc.Type,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	return claims
}
