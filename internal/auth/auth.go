// Package auth guards the dashboard with a single shared secret carried in
// a cookie.
package auth

import (
	"crypto/subtle"
	"errors"
	"time"
)

// CookieName holds the raw secret after a successful login.
const CookieName = "analytics_auth"

// CookieMaxAge is how long a login lasts.
const CookieMaxAge = 7 * 24 * time.Hour

var (
	// ErrNotConfigured means no secret is set, so nobody can log in.
	ErrNotConfigured = errors.New("analytics password not configured")
	// ErrInvalidPassword means the candidate does not match the secret.
	ErrInvalidPassword = errors.New("invalid password")
)

// Authorized reports whether the cookie value grants dashboard access. An
// unset secret never authorizes.
func Authorized(cookieValue, secret string) bool {
	if secret == "" || cookieValue == "" {
		return false
	}
	return secureCompare(cookieValue, secret)
}

// CheckPassword validates a login attempt.
func CheckPassword(candidate, secret string) error {
	if secret == "" {
		return ErrNotConfigured
	}
	if !secureCompare(candidate, secret) {
		return ErrInvalidPassword
	}
	return nil
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
