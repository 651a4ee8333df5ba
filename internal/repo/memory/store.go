// Package memory is an in-process implementation of the repositories, used to
// run the HTTP layer end to end without PostgreSQL.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/booking"
	"github.com/geocoder89/schedulehub/internal/domain/consumer"
	"github.com/geocoder89/schedulehub/internal/domain/enrollment"
	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/session"
	"github.com/geocoder89/schedulehub/internal/domain/settings"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/google/uuid"
)

type userRecord struct {
	user.User
	verification *user.Verification
}

// Store holds every table behind one lock. The typed repos returned by its
// accessors share it, so cross-table reads (identity, feedback emails) stay consistent.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*userRecord
	providers   map[string]provider.Provider
	consumers   map[string]consumer.Consumer
	feedback    map[string]feedback.Feedback
	enrollments map[string]enrollment.Request
	sessions    map[string]session.RefreshToken
	bookings    []booking.Booking
	exchanges   int
	settings    *settings.AppSettings
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*userRecord),
		providers:   make(map[string]provider.Provider),
		consumers:   make(map[string]consumer.Consumer),
		feedback:    make(map[string]feedback.Feedback),
		enrollments: make(map[string]enrollment.Request),
		sessions:    make(map[string]session.RefreshToken),
	}
}

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }
func (s *Store) Providers() *ProvidersRepo { return &ProvidersRepo{s: s} }
func (s *Store) Consumers() *ConsumersRepo { return &ConsumersRepo{s: s} }
func (s *Store) Feedback() *FeedbackRepo { return &FeedbackRepo{s: s} }
func (s *Store) Enrollments() *EnrollmentRepo { return &EnrollmentRepo{s: s} }
func (s *Store) Sessions() *SessionsRepo { return &SessionsRepo{s: s} }
func (s *Store) Settings() *SettingsRepo { return &SettingsRepo{s: s} }
func (s *Store) Stats() *StatsRepo { return &StatsRepo{s: s} }

// AddUser inserts an account directly. Missing ids and timestamps are filled in.
func (s *Store) AddUser(u user.User) user.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}

	s.mu.Lock()
	s.users[u.ID] = &userRecord{User: u}
	s.mu.Unlock()

	return u
}

// AddProvider links a provider profile to an existing account.
func (s *Store) AddProvider(userID, businessName string) provider.Provider {
	now := time.Now().UTC()
	p := provider.Provider{
		ID:                 uuid.NewString(),
		UserID:             userID,
		BusinessName:       businessName,
		SubscriptionStatus: provider.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	s.mu.Lock()
	s.providers[p.ID] = p
	s.mu.Unlock()

	return p
}

func (s *Store) SetBilling(providerID string, status provider.SubscriptionStatus, customerID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[providerID]
	if !ok {
		return
	}
	p.SubscriptionStatus = status
	p.StripeCustomerID = customerID
	s.providers[providerID] = p
}

// SetVerification replaces the pending verification token of an account.
func (s *Store) SetVerification(userID string, v user.Verification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[userID]; ok {
		rec.verification = &v
	}
}

// Verification returns the pending token of an account, if any.
func (s *Store) Verification(userID string) (user.Verification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok || rec.verification == nil {
		return user.Verification{}, false
	}
	return *rec.verification, true
}

func (s *Store) providerForUser(userID string) (provider.Provider, bool) {
	for _, p := range s.providers {
		if p.UserID == userID {
			return p, true
		}
	}
	return provider.Provider{}, false
}

// newestFirst orders by (createdAt DESC, id DESC) and applies an optional keyset cursor.
func newestFirst[T any](items []T, key func(T) (time.Time, string), after *utils.Cursor) []T {
	sort.Slice(items, func(i, j int) bool {
		ai, ii := key(items[i])
		aj, ij := key(items[j])
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return ii > ij
	})

	if after == nil {
		return items
	}

	out := items[:0]
	for _, it := range items {
		at, id := key(it)
		if at.Before(after.CreatedAt) || (at.Equal(after.CreatedAt) && id < after.ID) {
			out = append(out, it)
		}
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// AddConsumer attaches a consumer to a provider without going through plan limits.
func (s *Store) AddConsumer(c consumer.Consumer) consumer.Consumer {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.consumers[c.ID] = c
	s.mu.Unlock()

	return c
}

// AddFeedback stores a feedback row as given.
func (s *Store) AddFeedback(f feedback.Feedback) feedback.Feedback {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
		f.UpdatedAt = f.CreatedAt
	}

	s.mu.Lock()
	s.feedback[f.ID] = f
	s.mu.Unlock()

	return f
}
