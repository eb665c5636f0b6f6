package repository

import (
	"context"
	"errors"

	"users-api/backend/internal/user/domain"
)

// ErrDuplicate is returned by Create when the username or email is already taken.
var ErrDuplicate = errors.New("username or email already exists")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// CreateWithPassword inserts the user and its credential row in one
	// transaction and returns the assigned user id. Returns ErrDuplicate on a
	// username or email collision.
	CreateWithPassword(ctx context.Context, u *domain.User, passwordHash string) (int64, error)
	// Update persists the profile fields of u, keyed by u.ID. Returns
	// ErrDuplicate on a username or email collision.
	Update(ctx context.Context, u *domain.User) error
	// Delete removes the user; credential and session rows cascade. Returns
	// the number of user rows deleted.
	Delete(ctx context.Context, id int64) (int64, error)
	// List returns up to limit users ordered by id.
	List(ctx context.Context, limit int) ([]*domain.User, error)
}
