package service

import (
	"strings"

	userdomain "users-api/backend/internal/user/domain"
)

// validateSignup trims and checks all signup fields and returns the user to
// persist. All failures are ValidationErrors.
func validateSignup(in *SignupInput) (*userdomain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Fname = strings.TrimSpace(in.Fname)
	in.Lname = strings.TrimSpace(in.Lname)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	u := &userdomain.User{
		Username: in.Username,
		Fname:    in.Fname,
		Lname:    in.Lname,
		Email:    in.Email,
	}
	if err := u.Validate(); err != nil {
		return nil, invalid(err.Error())
	}
	if in.Password == "" {
		return nil, invalid("password is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return invalid("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber || !hasSymbol {
		return invalid("password must contain upper and lower case letters, a number, and a symbol")
	}
	return nil
}
