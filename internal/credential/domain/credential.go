package domain

import "time"

// Credential binds a user to a password hash. There is at most one credential
// per user. PasswordHash is opaque to everything except the hasher and must
// never be logged or compared directly.
type Credential struct {
	UserID        int64
	PasswordHash  string
	LastChangedAt *time.Time // nil until the password is first changed
}
