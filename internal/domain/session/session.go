// Package session models the server side of a refresh token.
package session

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("refresh token not found")
	ErrRevoked  = errors.New("refresh token revoked")
	ErrExpired  = errors.New("refresh token expired")
	ErrMismatch = errors.New("refresh token does not match stored hash")
)

// RefreshToken is the stored form of an issued refresh token. ID is the token's jti;
// only the HMAC of the raw token is kept.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

// Check validates a stored row against a presented token hash at now.
func (t RefreshToken) Check(presentedHash string, now time.Time) error {
	if t.RevokedAt != nil {
		return ErrRevoked
	}
	if now.After(t.ExpiresAt) {
		return ErrExpired
	}
	if t.TokenHash != presentedHash {
		return ErrMismatch
	}
	return nil
}
