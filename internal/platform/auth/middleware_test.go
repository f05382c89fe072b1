package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "patient-1",
			Issuer:    "medmeet",
			Audience:  jwt.ClaimStrings{"medmeet-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Ada Patient",
		Roles: []string{RolePatient},
	}
}

func runJWT(t *testing.T, cfg JWTConfig, header string) (Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/appointments/request", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var got Identity
	h := JWTMiddleware(cfg)(func(c echo.Context) error {
		got, _ = IdentityFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})
	return got, h(c)
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token := createTestToken(t, validClaims(), testSigningKey)
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "medmeet", Audience: "medmeet-api"}

	id, err := runJWT(t, cfg, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UserID != "patient-1" {
		t.Errorf("expected patient-1, got %s", id.UserID)
	}
	if id.Name != "Ada Patient" {
		t.Errorf("expected name Ada Patient, got %s", id.Name)
	}
	if len(id.Roles) != 1 || id.Roles[0] != RolePatient {
		t.Errorf("expected [patient], got %v", id.Roles)
	}
}

func TestJWTMiddleware_RejectsBadTokens(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Claims)
		key    []byte
	}{
		{"expired", func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) }, testSigningKey},
		{"no expiry", func(c *Claims) { c.ExpiresAt = nil }, testSigningKey},
		{"wrong issuer", func(c *Claims) { c.Issuer = "someone-else" }, testSigningKey},
		{"wrong audience", func(c *Claims) { c.Audience = jwt.ClaimStrings{"other"} }, testSigningKey},
		{"no subject", func(c *Claims) { c.Subject = "" }, testSigningKey},
		{"wrong key", func(c *Claims) {}, []byte("another-key")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(&claims)
			token := createTestToken(t, claims, tt.key)
			cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "medmeet", Audience: "medmeet-api"}

			_, err := runJWT(t, cfg, "Bearer "+token)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_SkipperBypasses(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Skipper: func(echo.Context) bool { return true }}
	if _, err := runJWT(t, cfg, ""); err != nil {
		t.Fatalf("expected skipped request to pass, got %v", err)
	}
}

func TestDevAuthMiddleware_DefaultsToAdmin(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var id Identity
	h := DevAuthMiddleware()(func(c echo.Context) error {
		id, _ = IdentityFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UserID != "dev-user" {
		t.Errorf("expected dev-user, got %s", id.UserID)
	}
	if len(id.Roles) != 1 || id.Roles[0] != RoleAdmin {
		t.Errorf("expected [admin], got %v", id.Roles)
	}
}

func TestDevAuthMiddleware_HeadersOverride(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevUserHeader, "doc-7")
	req.Header.Set(DevRolesHeader, "doctor, ")
	c := e.NewContext(req, httptest.NewRecorder())

	var id Identity
	h := DevAuthMiddleware()(func(c echo.Context) error {
		id, _ = IdentityFromContext(c.Request().Context())
		return nil
	})
	_ = h(c)

	if id.UserID != "doc-7" {
		t.Errorf("expected doc-7, got %s", id.UserID)
	}
	if len(id.Roles) != 1 || id.Roles[0] != RoleDoctor {
		t.Errorf("expected [doctor], got %v", id.Roles)
	}
}
