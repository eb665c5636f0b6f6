package repository

import (
	"context"

	"users-api/backend/internal/session/domain"
)

// Repository defines persistence for refresh sessions.
type Repository interface {
	// Create inserts a new session row. It fails unless exactly one row is
	// written; an issued refresh token must never be left unbacked by state.
	Create(ctx context.Context, s *domain.Session) error
	// GetByUser returns the session for userID, or nil if none exists.
	GetByUser(ctx context.Context, userID int64) (*domain.Session, error)
	// Delete removes the session with the given id and returns the number of
	// rows deleted. Deleting a nonexistent id returns 0, not an error; callers
	// rely on the 0-vs-1 distinction to detect concurrent redemption.
	Delete(ctx context.Context, sessionID string) (int64, error)
}
