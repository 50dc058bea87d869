package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jyotish/auth-service/internal/api/middleware"
	"github.com/jyotish/auth-service/internal/core/domain"
	"github.com/jyotish/auth-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, identifier, password string) (*ports.AuthResult, error)
	refreshFn  func(ctx context.Context, token string) (*ports.RefreshResult, error)
	validateFn func(ctx context.Context, token string) ports.ValidationResult
	meFn       func(ctx context.Context, token string) (*domain.PublicAccount, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, identifier, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*ports.RefreshResult, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Validate(ctx context.Context, token string) ports.ValidationResult {
	return s.validateFn(ctx, token)
}

func (s *stubAuthService) Me(ctx context.Context, token string) (*domain.PublicAccount, error) {
	return s.meFn(ctx, token)
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func sampleAuthResult() *ports.AuthResult {
	return &ports.AuthResult{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    domain.BearerTokenType,
		User: domain.PublicAccount{
			ID:       "user-1",
			Email:    "alice@example.com",
			Username: "alice",
			FullName: "Alice Doe",
			Role:     domain.RoleUser,
		},
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Email != "alice@example.com" || in.Username != "alice" || in.FullName != "Alice Doe" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return sampleAuthResult(), nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/api/auth/register",
		`{"email":"alice@example.com","username":"alice","password":"password123","fullName":"Alice Doe"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-1" || resp["refresh_token"] != "refresh-1" || resp["token_type"] != "Bearer" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["username"] != "alice" || user["full_name"] != "Alice Doe" || user["role"] != "user" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_ValidationFailures(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	cases := map[string]string{
		"not json":       "not-json",
		"missing email":  `{"username":"alice","password":"password123"}`,
		"bad email":      `{"email":"nope","username":"alice","password":"password123"}`,
		"short username": `{"email":"a@example.com","username":"al","password":"password123"}`,
		"short password": `{"email":"a@example.com","username":"alice","password":"short"}`,
		"long password":  `{"email":"a@example.com","username":"alice","password":"` + strings.Repeat("p", 80) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPost, "/api/auth/register", body)
			assertHTTPError(t, h.Register(c), http.StatusBadRequest)
		})
	}
}

func TestAuthHandler_Register_PropagatesDomainErrors(t *testing.T) {
	for _, want := range []error{domain.ErrDuplicateEmail, domain.ErrDuplicateUsername} {
		stub := &stubAuthService{
			registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
				return nil, want
			},
		}
		c, _ := newTestContext(http.MethodPost, "/api/auth/register",
			`{"email":"alice@example.com","username":"alice","password":"password123"}`)

		if err := NewAuthHandler(stub).Register(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, identifier, password string) (*ports.AuthResult, error) {
			if identifier != "alice" || password != "password123" {
				t.Fatalf("unexpected args: %s %s", identifier, password)
			}
			return sampleAuthResult(), nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/login", `{"identifier":"alice","password":"password123"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "access-1" || resp.User == nil || resp.User.ID != "user-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"identifier":"alice","password":"bad"}`)

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"identifier":"alice"}`)

	assertHTTPError(t, NewAuthHandler(stub).Login(c), http.StatusBadRequest)
}

func TestAuthHandler_Refresh(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(_ context.Context, token string) (*ports.RefreshResult, error) {
			if token != "refresh-1" {
				return nil, domain.ErrInvalidToken
			}
			return &ports.RefreshResult{AccessToken: "access-2", RefreshToken: "refresh-2", TokenType: domain.BearerTokenType}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/api/auth/refresh", `{"refreshToken":"refresh-1"}`)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access-2" || resp["refresh_token"] != "refresh-2" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if _, ok := resp["user"]; ok {
		t.Fatalf("refresh response must not carry a user")
	}

	c, _ = newTestContext(http.MethodPost, "/api/auth/refresh", `{"refreshToken":"stale"}`)
	if err := h.Refresh(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	c, _ = newTestContext(http.MethodPost, "/api/auth/refresh", `{}`)
	assertHTTPError(t, h.Refresh(c), http.StatusBadRequest)
}

func TestAuthHandler_Validate(t *testing.T) {
	stub := &stubAuthService{
		validateFn: func(_ context.Context, token string) ports.ValidationResult {
			if token == "good" {
				return ports.ValidationResult{Valid: true, Email: "alice@example.com", UserID: "user-1"}
			}
			return ports.ValidationResult{Valid: false, Message: "Token invalid or expired"}
		},
	}
	h := NewAuthHandler(stub)

	cases := []struct {
		name   string
		header string
		valid  bool
	}{
		{"valid bearer", "Bearer good", true},
		{"invalid token", "Bearer bad", false},
		{"missing header", "", false},
		{"wrong scheme", "Basic good", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodGet, "/api/auth/validate", "")
			if tc.header != "" {
				c.Request().Header.Set(echo.HeaderAuthorization, tc.header)
			}
			if err := h.Validate(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			var resp validateResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Valid != tc.valid {
				t.Fatalf("valid = %v, want %v", resp.Valid, tc.valid)
			}
			if tc.valid && (resp.Email != "alice@example.com" || resp.UserID != "user-1") {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if !tc.valid && resp.Message != "Token invalid or expired" {
				t.Fatalf("message = %q", resp.Message)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		meFn: func(_ context.Context, token string) (*domain.PublicAccount, error) {
			if token != "access-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return &domain.PublicAccount{ID: "user-1", Username: "alice"}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodGet, "/api/auth/me", "")
	assertHTTPError(t, h.Me(c), http.StatusUnauthorized)

	c, rec := newTestContext(http.MethodGet, "/api/auth/me", "")
	c.Set(middleware.ContextKeyClaims, &domain.Claims{UserID: "user-1", Type: domain.TokenTypeAccess})
	c.Set(middleware.ContextKeyToken, "access-1")
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Health(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/auth/health", "")
	if err := NewAuthHandler(&stubAuthService{}).Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"healthy","service":"auth-service"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}
