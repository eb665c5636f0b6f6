// Package handler exposes the auth service over HTTP and owns the mapping
// from service errors to status codes and from refresh tokens to cookies.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"users-api/backend/internal/auth/service"
	"users-api/backend/internal/httpx"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// Handler serves the /auth routes.
type Handler struct {
	svc           *service.AuthService
	logger        *slog.Logger
	secureCookies bool
}

// New returns an auth handler. secureCookies marks the refresh cookie Secure
// (set in production).
func New(svc *service.AuthService, logger *slog.Logger, secureCookies bool) *Handler {
	return &Handler{svc: svc, logger: logger, secureCookies: secureCookies}
}

type signupRequest struct {
	Username string `json:"username"`
	Fname    string `json:"fname"`
	Lname    string `json:"lname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username, err := h.svc.Signup(r.Context(), service.SignupInput{
		Username: req.Username,
		Fname:    req.Fname,
		Lname:    req.Lname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"message":  "User created",
		"username": username,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message":     "Login successful",
		"accessToken": pair.AccessToken,
	})
}

// Refresh handles POST /auth/refresh: one-time redemption of the refresh
// cookie for a new token pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.svc.Refresh(r.Context(), refreshTokenFromCookie(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"accessToken": pair.AccessToken,
	})
}

// Logout handles POST /auth/logout. Always clears the cookie and reports
// success, even without a valid refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), refreshTokenFromCookie(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.clearRefreshCookie(w)
	httpx.WriteMessage(w, http.StatusOK, "Logged Out")
}

func refreshTokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// writeError translates service errors to status codes. This is the only
// place that mapping happens; unexpected errors are logged in full here and
// reach the client as a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteMessage(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, service.ErrDuplicateCredential):
		httpx.WriteMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrSessionExpired):
		httpx.WriteMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrSessionRevoked):
		httpx.WriteMessage(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("auth request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
