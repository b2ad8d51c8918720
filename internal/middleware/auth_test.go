package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/util"

	"github.com/rs/zerolog"
)

func protected(t *testing.T, secret string) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("expected claims in the request context")
		}
		w.Write([]byte(claims.Email))
	})
	return AuthMiddleware(secret, zerolog.Nop())(inner)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := util.IssueJWT("u1", "u@example.com", "client", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t, "secret").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "u@example.com" {
		t.Fatalf("expected the claims email, got %q", rec.Body.String())
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	protected(t, "secret").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	protected(t, "secret").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminMiddlewareRejectsNonAdmin(t *testing.T) {
	token, err := util.IssueJWT("u1", "u@example.com", "client", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("expected the handler to be unreachable for non-admins")
	})
	chain := AuthMiddleware("secret", zerolog.Nop())(AdminMiddleware(inner))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminMiddlewareAllowsAdmin(t *testing.T) {
	token, err := util.IssueJWT("a1", "admin@example.com", "admin", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	chain := AuthMiddleware("secret", zerolog.Nop())(AdminMiddleware(inner))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
