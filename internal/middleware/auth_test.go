package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const authTestSecret = "auth-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthMiddlewarePutsIdentityOnContext(t *testing.T) {
	var gotUserID int64
	var gotRole string
	var called bool

	handler := AuthMiddleware(authTestSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUserID, _ = GetUserID(r.Context())
		gotRole, _ = GetUserRole(r.Context())
	}))

	token := signToken(t, authTestSecret, jwt.MapClaims{
		"user_id": 42,
		"role":    "admin",
		"exp":     time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !called {
		t.Fatal("handler was not called for a valid token")
	}
	if gotUserID != 42 {
		t.Errorf("expected user id 42, got %d", gotUserID)
	}
	if gotRole != "admin" {
		t.Errorf("expected role admin, got %q", gotRole)
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	handler := AuthMiddleware(authTestSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "malformed header", header: "Token abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
		{
			name: "wrong signing key",
			header: "Bearer " + signToken(t, "other-secret", jwt.MapClaims{
				"user_id": 1,
				"role":    "user",
				"exp":     time.Now().Add(time.Minute).Unix(),
			}),
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, authTestSecret, jwt.MapClaims{
				"user_id": 1,
				"role":    "user",
				"exp":     time.Now().Add(-time.Minute).Unix(),
			}),
		},
		{
			name: "missing user id claim",
			header: "Bearer " + signToken(t, authTestSecret, jwt.MapClaims{
				"role": "user",
				"exp":  time.Now().Add(time.Minute).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestRequireAdminBlocksNonAdmins(t *testing.T) {
	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	authed := AuthMiddleware(authTestSecret, zap.NewNop())(RequireAdmin(zap.NewNop())(base))

	run := func(role string) int {
		token := signToken(t, authTestSecret, jwt.MapClaims{
			"user_id": 1,
			"role":    role,
			"exp":     time.Now().Add(time.Minute).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		authed.ServeHTTP(w, req)
		return w.Code
	}

	if code := run("user"); code != http.StatusForbidden {
		t.Errorf("expected 403 for user role, got %d", code)
	}
	if code := run("admin"); code != http.StatusOK {
		t.Errorf("expected 200 for admin role, got %d", code)
	}
}
