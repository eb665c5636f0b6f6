package repository

import (
	"context"

	"users-api/backend/internal/credential/domain"
)

// Repository defines persistence for user credentials.
type Repository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Credential, error)
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
}
