// Package common defines shared constants and sentinel errors used across
// the Ayurlekha client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Validation errors. Raised before any network call and surfaced inline
	// to the user; never treated as failures of the backend.
	ErrInvalidEmail     = errors.New("invalid e-mail address")
	ErrInvalidPatientID = errors.New("patient id is not a valid UUID")
	ErrIncompleteCode   = errors.New("verification code is incomplete")
)
