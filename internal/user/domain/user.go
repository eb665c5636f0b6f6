package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)
	nameRe     = regexp.MustCompile(`^\p{L}+$`)
	emailRe    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// User is the core profile entity.
type User struct {
	ID        int64
	Username  string
	Fname     string
	Lname     string
	Email     string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks all profile fields for persistence and returns an error
// describing the first failure. Lengths are counted in runes, not bytes, so
// accented names are measured as the user sees them.
func (u *User) Validate() error {
	if u.Username == "" || u.Fname == "" || u.Lname == "" || u.Email == "" {
		return errors.New("all fields must be filled")
	}
	if n := utf8.RuneCountInString(u.Username); n < 3 || n > 30 {
		return errors.New("username should be between 3 and 30 characters")
	}
	if !usernameRe.MatchString(u.Username) {
		return errors.New("username contains invalid characters")
	}
	if utf8.RuneCountInString(u.Fname) > 20 || utf8.RuneCountInString(u.Lname) > 20 {
		return errors.New("first and last names must be at most 20 characters")
	}
	if !nameRe.MatchString(u.Fname) || !nameRe.MatchString(u.Lname) {
		return errors.New("name contains invalid characters")
	}
	return validateEmail(u.Email)
}

// validateEmail enforces the address shape plus the RFC length caps, which
// are octet limits and deliberately counted in bytes.
func validateEmail(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" ||
		len(local) > 64 || len(domain) > 253 || len(email) > 254 ||
		!emailRe.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}
