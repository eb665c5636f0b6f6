// Package service orchestrates signup, login, refresh rotation, logout, and
// password changes over the password hasher, token provider, and repositories.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	credentialdomain "users-api/backend/internal/credential/domain"
	"users-api/backend/internal/security"
	sessiondomain "users-api/backend/internal/session/domain"
	userdomain "users-api/backend/internal/user/domain"
	userrepo "users-api/backend/internal/user/repository"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	// ErrInvalidCredentials covers both unknown username and wrong password so
	// the two cases are indistinguishable to the client.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned for a missing, malformed, or badly signed
	// refresh token.
	ErrUnauthenticated = errors.New("missing or invalid refresh token")
	// ErrSessionExpired is returned when the refresh token or its backing
	// session row has passed its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionRevoked is returned when a cryptographically valid refresh
	// token no longer matches a live session row: the row was rotated away,
	// logged out, or consumed by a concurrent refresh. This is the replay signal.
	ErrSessionRevoked = errors.New("session not found or revoked")
	// ErrDuplicateCredential is returned on signup when the username or email
	// is already taken.
	ErrDuplicateCredential = errors.New("username or email already taken")
)

// ValidationError reports malformed input. The handler maps it to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// SignupInput is the raw signup request body.
type SignupInput struct {
	Username string
	Fname    string
	Lname    string
	Email    string
	Password string
}

// TokenPair is the outcome of Login and Refresh: a short-lived access token
// for the response body and a refresh token for the cookie, with the cookie's
// expiry instant.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	UserID           int64
	Username         string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	CreateWithPassword(ctx context.Context, u *userdomain.User, passwordHash string) (int64, error)
}

// CredentialRepo is the minimal credential repository needed by the auth service.
type CredentialRepo interface {
	GetByUserID(ctx context.Context, userID int64) (*credentialdomain.Credential, error)
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	GetByUser(ctx context.Context, userID int64) (*sessiondomain.Session, error)
	Delete(ctx context.Context, sessionID string) (int64, error)
}

// AuthService implements signup, login, refresh rotation, logout, and password change.
// It exclusively owns the session lifecycle; nothing else creates or deletes rows.
type AuthService struct {
	users    UserRepo
	creds    CredentialRepo
	sessions SessionRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, creds CredentialRepo, sessions SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{
		users:    users,
		creds:    creds,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Signup validates the input, hashes the password, and persists the user with
// its credential in one transaction. Returns the created username; the user
// must still log in to get tokens.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (string, error) {
	u, err := validateSignup(&in)
	if err != nil {
		return "", err
	}
	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return "", err
	}
	if _, err := s.users.CreateWithPassword(ctx, u, hashed); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return "", ErrDuplicateCredential
		}
		return "", err
	}
	return u.Username, nil
}

// Login authenticates username/password, creates a fresh session, and returns
// the token pair. Unknown usernames and wrong passwords both come back as
// ErrInvalidCredentials with nothing to tell them apart.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	cred, err := s.creds.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(cred.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user.ID, user.Username)
}

// Refresh redeems a refresh token exactly once: it verifies the token, checks
// it against the live session row, deletes the row, and issues a new pair
// bound to a new session id.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			// The signature checked out, only the expiry failed, so the
			// session id is trustworthy. Session row and token expire at the
			// same instant; reap the row now instead of leaving it for the
			// next login's mismatch path.
			if claims != nil && claims.SessionID != "" {
				_, _ = s.sessions.Delete(ctx, claims.SessionID)
			}
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthenticated
	}
	if claims.SessionID == "" {
		return nil, ErrUnauthenticated
	}
	userID, err := security.UserID(claims.RegisteredClaims)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.ID != claims.SessionID {
		return nil, ErrSessionRevoked
	}

	if sess.ExpiresAt.Before(time.Now()) {
		if _, err := s.sessions.Delete(ctx, sess.ID); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	// One-time redemption: the delete is the claim on the token. Zero rows
	// deleted means a concurrent request already consumed it; abort without
	// issuing tokens.
	deleted, err := s.sessions.Delete(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, ErrSessionRevoked
	}

	return s.openSession(ctx, userID, claims.Username)
}

// Logout deletes the session bound to the refresh token. It is idempotent:
// a missing or invalid token, or an already-deleted row, still succeeds. An
// expired access token never blocks logout because only the refresh token is
// consulted, and an expired refresh token with a good signature still deletes
// its session row.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil && !errors.Is(err, security.ErrTokenExpired) {
		return nil
	}
	if claims == nil || claims.SessionID == "" {
		return nil
	}
	_, err = s.sessions.Delete(ctx, claims.SessionID)
	return err
}

// ChangePassword verifies the old password and stores a hash of the new one,
// recording the change time.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return invalid("old and new passwords are required")
	}
	if oldPassword == newPassword {
		return invalid("new password must be different from old password")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	cred, err := s.creds.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if cred == nil {
		return errors.New("credential not found")
	}
	if err := s.hasher.Compare(cred.PasswordHash, []byte(oldPassword)); err != nil {
		return invalid("invalid old password")
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	return s.creds.UpdatePasswordHash(ctx, userID, hashed)
}

// openSession issues a fresh session id with its token pair and persists the
// backing row. Shared by Login and the tail of Refresh.
func (s *AuthService) openSession(ctx context.Context, userID int64, username string) (*TokenPair, error) {
	sessionID := uuid.New().String()
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(userID, username, sessionID)
	if err != nil {
		return nil, err
	}
	accessToken, _, err := s.tokens.IssueAccess(userID, username)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: refreshExp,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
		UserID:           userID,
		Username:         username,
	}, nil
}
