package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"users-api/backend/internal/security"
)

func newTestTokens() *security.TokenProvider {
	return security.NewTokenProvider([]byte("mw-access"), []byte("mw-refresh"), "users-api-test", 15*time.Minute, time.Hour)
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		if !ok {
			t.Error("user id missing from context")
		}
		name, ok := GetUsername(r.Context())
		if !ok {
			t.Error("username missing from context")
		}
		if id != 7 || name != "alice" {
			t.Errorf("context identity = (%d, %q), want (7, alice)", id, name)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tokens := newTestTokens()
	access, _, err := tokens.IssueAccess(7, "alice")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()

	RequireAuth(tokens)(protectedEcho(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tokens := newTestTokens()
	refresh, _, _ := tokens.IssueRefresh(7, "alice", "sess-1")
	expiredTokens := security.NewTokenProvider([]byte("mw-access"), []byte("mw-refresh"), "users-api-test", -time.Minute, time.Hour)
	expired, _, _ := expiredTokens.IssueAccess(7, "alice")

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer garbage"},
		{"refresh token as access", "Bearer " + refresh},
		{"expired access token", "Bearer " + expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			called := false
			RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("next handler must not run without a valid token")
			}
		})
	}
}
