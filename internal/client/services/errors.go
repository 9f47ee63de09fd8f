// Package services contains the application services of the Ayurlekha CLI:
// session lifecycle, the patient and record cache stores, document upload,
// and summary retrieval. The cache stores mirror backend data into local
// SQLite so the app can display records offline; they are invalidated on
// sign-out.
package services

import (
	"errors"

	"github.com/ayurlekha/ayurlekha/internal/client/backend"
)

// ErrOpenInFlight is returned when a document open is requested while a
// previous open is still resolving.
var ErrOpenInFlight = errors.New("another document is still loading")

// FailureMessage converts a backend failure into the message shown to the
// user. Failures are terminal for the attempt; there is no automatic retry.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return "You are not authorized. Please sign in again."
	case errors.Is(err, backend.ErrUnavailable):
		return "Network error. Check your connection and try again."
	case errors.Is(err, backend.ErrExpiredCode):
		return "That code has expired. Request a new one with 'resend'."
	case errors.Is(err, backend.ErrInvalidCode):
		return "That code is not right. Check the digits and try again."
	case errors.Is(err, backend.ErrNotFound):
		return "The requested item was not found."
	default:
		return err.Error()
	}
}
