package taskvault

import (
	"fmt"
	"regexp"
	"strings"
)

// Credentials represents user-submitted input for registration or login
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Structural limits on registration input.
const (
	MinPasswordLength = 6
	MaxNameLength     = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lowercases an email address. Every lookup and
// the uniqueness constraint operate on the normalized form, so two
// casings of the same address are the same login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks structural constraints on signup input and
// returns one AuthError per failing field. A non-empty result means the
// request must be rejected before any store access.
func (c *Credentials) ValidateRegistration() []*AuthError {
	var errs []*AuthError

	name := strings.TrimSpace(c.Name)
	if name == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Name is required", "name"))
	} else if len(name) > MaxNameLength {
		errs = append(errs, NewAuthError(ErrCodeInvalidName,
			fmt.Sprintf("Name must be at most %d characters", MaxNameLength), "name"))
	}

	email := NormalizeEmail(c.Email)
	if email == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
	} else if !emailRegex.MatchString(email) {
		errs = append(errs, NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email"))
	}

	if c.Password == "" {
		errs = append(errs, NewAuthError(ErrCodeMissingField, "Password is required", "password"))
	} else if len(c.Password) < MinPasswordLength {
		errs = append(errs, NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password"))
	}

	return errs
}
