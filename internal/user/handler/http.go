// Package handler serves the protected /users routes.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"users-api/backend/internal/auth/service"
	"users-api/backend/internal/httpx"
	"users-api/backend/internal/server/middleware"
	"users-api/backend/internal/user/repository"
)

// Handler serves the /users routes. All of them sit behind the auth middleware.
type Handler struct {
	users  repository.Repository
	auth   *service.AuthService
	logger *slog.Logger
}

// New returns a user handler.
func New(users repository.Repository, auth *service.AuthService, logger *slog.Logger) *Handler {
	return &Handler{users: users, auth: auth, logger: logger}
}

type userResponse struct {
	Username  string    `json:"username"`
	Fname     string    `json:"fname"`
	Lname     string    `json:"lname"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type passwordChangeRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// profilePatch is a partial profile update; absent fields keep their value.
type profilePatch struct {
	Username *string `json:"username"`
	Fname    *string `json:"fname"`
	Lname    *string `json:"lname"`
	Email    *string `json:"email"`
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("get user failed", "user_id", userID, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if u == nil {
		httpx.WriteMessage(w, http.StatusNotFound, "user not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{
		Username:  u.Username,
		Fname:     u.Fname,
		Lname:     u.Lname,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

// UpdateProfile handles PATCH /users/me. The body carries any subset of the
// profile fields; the merge with the stored row is validated as a whole.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var patch profilePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Username == nil && patch.Fname == nil && patch.Lname == nil && patch.Email == nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "no fields to update")
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("get user failed", "user_id", userID, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if u == nil {
		httpx.WriteMessage(w, http.StatusNotFound, "user not found")
		return
	}

	if patch.Username != nil {
		u.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Fname != nil {
		u.Fname = strings.TrimSpace(*patch.Fname)
	}
	if patch.Lname != nil {
		u.Lname = strings.TrimSpace(*patch.Lname)
	}
	if patch.Email != nil {
		u.Email = strings.TrimSpace(strings.ToLower(*patch.Email))
	}
	if err := u.Validate(); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Update(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			httpx.WriteMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("update user failed", "user_id", userID, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Profile updated")
}

// DeleteAccount handles DELETE /users/me. Credential and session rows go with
// the user via the schema's cascade, so the refresh token dies here too.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	deleted, err := h.users.Delete(r.Context(), userID)
	if err != nil {
		h.logger.Error("delete user failed", "user_id", userID, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if deleted == 0 {
		httpx.WriteMessage(w, http.StatusNotFound, "user not found")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "User deleted")
}

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// List handles GET /users. The optional limit query parameter caps the page
// size (default 10, max 100).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			httpx.WriteMessage(w, http.StatusBadRequest, "limit must be a number between 1 and 100")
			return
		}
		limit = n
	}

	users, err := h.users.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			Username:  u.Username,
			Fname:     u.Fname,
			Lname:     u.Lname,
			Email:     u.Email,
			AvatarURL: u.AvatarURL,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// ChangePassword handles PATCH /users/me/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	var req passwordChangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			httpx.WriteMessage(w, http.StatusBadRequest, ve.Msg)
			return
		}
		h.logger.Error("password change failed", "user_id", userID, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Password changed successfully")
}
