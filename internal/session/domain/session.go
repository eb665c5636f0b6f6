package domain

import "time"

// Session is the server-side record that makes a refresh token redeemable.
// The row is the sole source of truth: rotation and logout delete it, they
// never mark it used.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
