package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleProvider Role = "PROVIDER"
	RoleConsumer Role = "CONSUMER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProvider, RoleConsumer:
		return true
	default:
		return false
	}
}

// VerificationTTL is how long an emailed verification link stays usable.
const VerificationTTL = 24 * time.Hour

var (
	ErrNotFound                 = errors.New("user not found")
	ErrEmailAlreadyUsed         = errors.New("email already in use")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // never expose hash in JSON
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	PushToken     *string   `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Identity is the role plus linked profile ids of an account, loaded once per request.
type Identity struct {
	UserID     string
	Email      string
	Role       Role
	ProviderID *string
	ConsumerID *string
}

// Verification is an issued email verification token awaiting consumption.
type Verification struct {
	Token     string
	ExpiresAt time.Time
}

// NeedsVerification reports whether a polling client should be told the account is unverified.
// Only provider accounts that exist and are explicitly unverified qualify.
func (u User) NeedsVerification() bool {
	return u.Role == RoleProvider && !u.EmailVerified
}
