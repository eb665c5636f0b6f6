// Package handler serves the health endpoint.
package handler

import (
	"database/sql"
	"net/http"

	"users-api/backend/internal/httpx"
)

// Handler serves GET /healthz.
type Handler struct {
	db *sql.DB
}

// New returns a health handler. db may be nil; then only liveness is reported.
func New(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// Check reports 200 when the process is up and the database is reachable,
// 503 otherwise.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
