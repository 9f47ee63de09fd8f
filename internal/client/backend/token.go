package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the subset of the platform's access-token claims the
// client cares about.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// ParseAccessToken decodes the identity carried by an access token.
//
// The signature is not verified: the token was issued to us by the backend
// over TLS, and the backend re-verifies it on every call. The client only
// needs the user id, e-mail and expiry for local display and session restore.
func ParseAccessToken(token string) (userID, email string, expiresAt time.Time, err error) {
	claims := &accessClaims{}
	parser := jwt.NewParser()
	if _, _, err = parser.ParseUnverified(token, claims); err != nil {
		return "", "", time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return claims.Subject, claims.Email, expiresAt, nil
}
