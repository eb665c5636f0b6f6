package repository

import (
	"context"
	"database/sql"
	"errors"

	"users-api/backend/internal/credential/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserID returns the credential for userID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Credential, error) {
	var c domain.Credential
	var lastChanged sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, password_hash, last_changed_at FROM user_auth WHERE user_id = $1`,
		userID,
	).Scan(&c.UserID, &c.PasswordHash, &lastChanged)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastChanged.Valid {
		c.LastChangedAt = &lastChanged.Time
	}
	return &c, nil
}

// UpdatePasswordHash replaces the stored hash for userID and records the
// change time. Returns an error if the update does not affect exactly one row.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_auth SET password_hash = $1, last_changed_at = now() WHERE user_id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errors.New("credential update affected no rows")
	}
	return nil
}
