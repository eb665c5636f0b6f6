package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"users-api/backend/internal/auth/service"
	credentialdomain "users-api/backend/internal/credential/domain"
	"users-api/backend/internal/security"
	"users-api/backend/internal/server/middleware"
	sessiondomain "users-api/backend/internal/session/domain"
	userdomain "users-api/backend/internal/user/domain"
	userrepo "users-api/backend/internal/user/repository"
)

// memStore backs all repositories for these tests; no locking needed, the
// handlers run sequentially here.
type memStore struct {
	nextID   int64
	users    map[int64]*userdomain.User
	creds    map[int64]*credentialdomain.Credential
	sessions map[string]*sessiondomain.Session
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*userdomain.User, error) {
	return s.users[id], nil
}

func (s *memStore) GetByUsername(ctx context.Context, username string) (*userdomain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateWithPassword(ctx context.Context, u *userdomain.User, passwordHash string) (int64, error) {
	s.nextID++
	u2 := *u
	u2.ID = s.nextID
	s.users[u2.ID] = &u2
	s.creds[u2.ID] = &credentialdomain.Credential{UserID: u2.ID, PasswordHash: passwordHash}
	return u2.ID, nil
}

func (s *memStore) Update(ctx context.Context, u *userdomain.User) error {
	for id, existing := range s.users {
		if id != u.ID && (existing.Username == u.Username || existing.Email == u.Email) {
			return userrepo.ErrDuplicate
		}
	}
	if _, ok := s.users[u.ID]; !ok {
		return errors.New("user update affected no rows")
	}
	u2 := *u
	u2.UpdatedAt = time.Now()
	s.users[u.ID] = &u2
	return nil
}

func (s *memStore) Delete(ctx context.Context, id int64) (int64, error) {
	if _, ok := s.users[id]; !ok {
		return 0, nil
	}
	delete(s.users, id)
	delete(s.creds, id)
	for sid, sess := range s.sessions {
		if sess.UserID == id {
			delete(s.sessions, sid)
		}
	}
	return 1, nil
}

func (s *memStore) List(ctx context.Context, limit int) ([]*userdomain.User, error) {
	var out []*userdomain.User
	for _, u := range s.users {
		if len(out) == limit {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *memStore) GetByUserID(ctx context.Context, userID int64) (*credentialdomain.Credential, error) {
	return s.creds[userID], nil
}

func (s *memStore) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	t := time.Now()
	s.creds[userID].PasswordHash = passwordHash
	s.creds[userID].LastChangedAt = &t
	return nil
}

func (s *memStore) Create(ctx context.Context, sess *sessiondomain.Session) error {
	s2 := *sess
	s.sessions[s2.ID] = &s2
	return nil
}

func (s *memStore) GetByUser(ctx context.Context, userID int64) (*sessiondomain.Session, error) {
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			return sess, nil
		}
	}
	return nil, nil
}

// sessionMemStore exposes the session half of memStore; its Delete takes a
// session ID, which would otherwise collide with the user Delete on memStore.
type sessionMemStore struct{ *memStore }

func (s sessionMemStore) Delete(ctx context.Context, sessionID string) (int64, error) {
	if _, ok := s.sessions[sessionID]; !ok {
		return 0, nil
	}
	delete(s.sessions, sessionID)
	return 1, nil
}

func newTestHandler(t *testing.T) (*Handler, int64) {
	t.Helper()
	st := &memStore{
		users:    map[int64]*userdomain.User{},
		creds:    map[int64]*credentialdomain.Credential{},
		sessions: map[string]*sessiondomain.Session{},
	}
	tokens := security.NewTokenProvider([]byte("a"), []byte("b"), "users-api-test", time.Minute, time.Hour)
	svc := service.NewAuthService(st, st, sessionMemStore{st}, security.NewHasher(4), tokens)

	username, err := svc.Signup(context.Background(), service.SignupInput{
		Username: "alice",
		Fname:    "Alice",
		Lname:    "Smith",
		Email:    "alice@example.com",
		Password: "Passw0rd!",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	u, _ := st.GetByUsername(context.Background(), username)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, svc, logger), u.ID
}

func asUser(req *http.Request, userID int64) *http.Request {
	ctx := middleware.WithIdentity(req.Context(), userID, "alice")
	return req.WithContext(ctx)
}

func TestMe(t *testing.T) {
	h, userID := newTestHandler(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), userID)
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["username"] != "alice" || body["email"] != "alice@example.com" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["avatarUrl"]; !ok {
		t.Error("body missing avatarUrl")
	}
}

func TestMe_NoIdentity(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestMe_UnknownUser(t *testing.T) {
	h, _ := newTestHandler(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), 9999)
	rr := httptest.NewRecorder()
	h.Me(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestChangePassword(t *testing.T) {
	h, userID := newTestHandler(t)

	body := `{"oldPassword":"Passw0rd!","newPassword":"NewPassw0rd!"}`
	req := asUser(httptest.NewRequest(http.MethodPatch, "/users/me/password", strings.NewReader(body)), userID)
	rr := httptest.NewRecorder()
	h.ChangePassword(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestChangePassword_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong old password", `{"oldPassword":"WrongPass1!","newPassword":"NewPassw0rd!"}`},
		{"same as old", `{"oldPassword":"Passw0rd!","newPassword":"Passw0rd!"}`},
		{"weak new password", `{"oldPassword":"Passw0rd!","newPassword":"short"}`},
		{"malformed body", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, userID := newTestHandler(t)
			req := asUser(httptest.NewRequest(http.MethodPatch, "/users/me/password", strings.NewReader(tt.body)), userID)
			rr := httptest.NewRecorder()
			h.ChangePassword(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	h, userID := newTestHandler(t)

	body := `{"fname":"Alicia","email":"Alicia@Example.com"}`
	req := asUser(httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(body)), userID)
	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Untouched fields survive the merge; the email is lowercased.
	req = asUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), userID)
	rr = httptest.NewRecorder()
	h.Me(rr, req)
	var me map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me body: %v", err)
	}
	if me["fname"] != "Alicia" || me["lname"] != "Smith" || me["username"] != "alice" {
		t.Errorf("me after update = %v", me)
	}
	if me["email"] != "alicia@example.com" {
		t.Errorf("email = %v, want lowercased", me["email"])
	}
}

func TestUpdateProfile_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty patch", `{}`},
		{"unknown field", `{"role":"admin"}`},
		{"bad username", `{"username":"a"}`},
		{"bad email", `{"email":"not-an-email"}`},
		{"blank name", `{"fname":"  "}`},
		{"malformed body", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, userID := newTestHandler(t)
			req := asUser(httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(tt.body)), userID)
			rr := httptest.NewRecorder()
			h.UpdateProfile(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestUpdateProfile_DuplicateUsername(t *testing.T) {
	h, userID := newTestHandler(t)
	if _, err := h.auth.Signup(context.Background(), service.SignupInput{
		Username: "bob",
		Fname:    "Bob",
		Lname:    "Jones",
		Email:    "bob@example.com",
		Password: "Passw0rd!",
	}); err != nil {
		t.Fatalf("Signup bob: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(`{"username":"bob"}`)), userID)
	rr := httptest.NewRecorder()
	h.UpdateProfile(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDeleteAccount(t *testing.T) {
	h, userID := newTestHandler(t)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/users/me", nil), userID)
	rr := httptest.NewRecorder()
	h.DeleteAccount(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	// The user is gone; a second delete and a profile read both 404.
	rr = httptest.NewRecorder()
	h.DeleteAccount(rr, asUser(httptest.NewRequest(http.MethodDelete, "/users/me", nil), userID))
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.Me(rr, asUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), userID))
	if rr.Code != http.StatusNotFound {
		t.Errorf("me after delete status = %d, want 404", rr.Code)
	}
}

func TestList(t *testing.T) {
	h, userID := newTestHandler(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/users", nil), userID)
	rr := httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var users []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(users) != 1 || users[0]["username"] != "alice" {
		t.Errorf("users = %v", users)
	}
}

func TestList_LimitValidation(t *testing.T) {
	h, userID := newTestHandler(t)

	for _, raw := range []string{"0", "-1", "101", "abc"} {
		req := asUser(httptest.NewRequest(http.MethodGet, "/users?limit="+raw, nil), userID)
		rr := httptest.NewRecorder()
		h.List(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want 400", raw, rr.Code)
		}
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/users?limit=5", nil), userID)
	rr := httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("limit 5: status = %d, want 200", rr.Code)
	}
}
