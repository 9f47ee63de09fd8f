// Package otp models the one-time-password sign-in flow: e-mail validation,
// the six-digit code entry, and the resend cooldown.
package otp

import (
	"regexp"
	"strings"

	"github.com/ayurlekha/ayurlekha/internal/common"
)

// Shape check only: something@something.something, no whitespace.
// The backend does the real validation.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases the address and validates its shape.
// An invalid address returns common.ErrInvalidEmail before any network call
// is made.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return "", common.ErrInvalidEmail
	}
	return email, nil
}
