// Package password mirrors the server's password policy so reset and
// registration flows can fail fast without a round trip. The server remains
// the authority and can still reject.
package password

import (
	"errors"
	"unicode"
)

// MinLength is the minimum password length the backend enforces.
const MinLength = 8

var (
	ErrTooShort    = errors.New("password must be at least 8 characters")
	ErrNoLowercase = errors.New("password must contain a lowercase letter")
	ErrNoUppercase = errors.New("password must contain an uppercase letter")
	ErrNoDigit     = errors.New("password must contain a digit")
)

// Validate checks a candidate password against the policy and returns all
// violations joined, or nil when the policy is satisfied.
func Validate(candidate string) error {
	var errs []error

	if len(candidate) < MinLength {
		errs = append(errs, ErrTooShort)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLower {
		errs = append(errs, ErrNoLowercase)
	}
	if !hasUpper {
		errs = append(errs, ErrNoUppercase)
	}
	if !hasDigit {
		errs = append(errs, ErrNoDigit)
	}

	return errors.Join(errs...)
}
