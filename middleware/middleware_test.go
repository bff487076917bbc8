package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solemart/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

func signToken(t *testing.T, claims *Claims, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() *Claims {
	return &Claims{
		Name:   "Test Shopper",
		Email:  "shopper@example.com",
		UserID: "u123",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler should not run without a token")
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil), nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler should not run with a bad token")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), []byte("wrong-secret")))
	w := httptest.NewRecorder()
	handler(w, r, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler should not run with an expired token")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, claims, globals.JwtSecret))
	w := httptest.NewRecorder()
	handler(w, r, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	var gotUserID, gotRole string
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUserID, _ = r.Context().Value(globals.UserIDKey).(string)
		gotRole, _ = r.Context().Value(globals.RoleKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), globals.JwtSecret))
	w := httptest.NewRecorder()
	handler(w, r, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "u123" || gotRole != "user" {
		t.Errorf("context carried userID=%q role=%q", gotUserID, gotRole)
	}
}

func TestAuthenticateTokenCookie(t *testing.T) {
	var gotUserID string
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUserID, _ = r.Context().Value(globals.UserIDKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, validClaims(), globals.JwtSecret)})
	w := httptest.NewRecorder()
	handler(w, r, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "u123" {
		t.Errorf("userID from cookie token = %q, want %q", gotUserID, "u123")
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin passes", "admin", http.StatusOK},
		{"user rejected", "user", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims := validClaims()
			claims.Role = tc.role

			handler := Authenticate(RequireAdmin(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			r.Header.Set("Authorization", "Bearer "+signToken(t, claims, globals.JwtSecret))
			w := httptest.NewRecorder()
			handler(w, r, nil)

			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestOptionalAuthWithoutToken(t *testing.T) {
	called := false
	handler := OptionalAuth(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
		if uid, ok := r.Context().Value(globals.UserIDKey).(string); ok && uid != "" {
			t.Errorf("anonymous request carried userID %q", uid)
		}
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/api/products", nil), nil)

	if !called {
		t.Fatal("handler was not reached")
	}
}

func TestValidateJWT(t *testing.T) {
	signed := signToken(t, validClaims(), globals.JwtSecret)

	claims, err := ValidateJWT(signed)
	if err != nil {
		t.Fatalf("ValidateJWT error: %v", err)
	}
	if claims.UserID != "u123" || claims.Email != "shopper@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := ValidateJWT(""); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := ValidateJWT("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
