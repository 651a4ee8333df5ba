package auth

import "github.com/geocoder89/schedulehub/internal/domain/user"

// Caller is the resolved identity behind a request. The set of variants is
// closed: Anonymous, Admin, Provider and Consumer are the only implementations.
type Caller interface {
	Kind() string
	isCaller()
}

type Anonymous struct{}

type Admin struct {
	UserID string
	Email  string
	// ProviderID is set when the admin account also owns a business profile.
	ProviderID string
}

type Provider struct {
	UserID string
	Email  string
	// ProviderID is empty when no provider row is linked to the account.
	ProviderID string
}

type Consumer struct {
	UserID     string
	Email      string
	ConsumerID string
}

func (Anonymous) Kind() string { return "anonymous" }
func (Admin) Kind() string     { return "admin" }
func (Provider) Kind() string  { return "provider" }
func (Consumer) Kind() string  { return "consumer" }

func (Anonymous) isCaller() {}
func (Admin) isCaller()     {}
func (Provider) isCaller()  {}
func (Consumer) isCaller()  {}

// HasProfile reports whether the provider account is linked to a provider row.
func (p Provider) HasProfile() bool { return p.ProviderID != "" }

// CallerFromIdentity maps a stored identity onto its variant.
// Unknown roles resolve to Anonymous so they can never pass a gate.
func CallerFromIdentity(id user.Identity) Caller {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	switch id.Role {
	case user.RoleAdmin:
		return Admin{UserID: id.UserID, Email: id.Email, ProviderID: deref(id.ProviderID)}
	case user.RoleProvider:
		return Provider{UserID: id.UserID, Email: id.Email, ProviderID: deref(id.ProviderID)}
	case user.RoleConsumer:
		return Consumer{UserID: id.UserID, Email: id.Email, ConsumerID: deref(id.ConsumerID)}
	default:
		return Anonymous{}
	}
}

// UserID returns the account id for any authenticated variant.
func UserID(c Caller) (string, bool) {
	switch v := c.(type) {
	case Admin:
		return v.UserID, true
	case Provider:
		return v.UserID, true
	case Consumer:
		return v.UserID, true
	case Anonymous:
		return "", false
	default:
		return "", false
	}
}
