package memory

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rec := range r.s.users {
		if rec.Email == email {
			return rec.User, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return rec.User, nil
}

func (r *UsersRepo) ResolveIdentity(ctx context.Context, userID string) (user.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.users[userID]
	if !ok {
		return user.Identity{}, user.ErrNotFound
	}

	id := user.Identity{UserID: rec.ID, Email: rec.Email, Role: rec.Role}

	if p, ok := r.s.providerForUser(userID); ok {
		pid := p.ID
		id.ProviderID = &pid
	}

	for _, c := range r.s.consumers {
		if c.UserID != nil && *c.UserID == userID {
			cid := c.ID
			id.ConsumerID = &cid
			break
		}
	}

	return id, nil
}

func (r *UsersRepo) CreateProviderAccount(ctx context.Context, u user.User, businessName string, v user.Verification) (user.User, provider.Provider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.users {
		if rec.Email == u.Email {
			return user.User{}, provider.Provider{}, user.ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.Role = user.RoleProvider
	u.EmailVerified = false
	u.CreatedAt, u.UpdatedAt = now, now

	p := provider.Provider{
		ID:                 uuid.NewString(),
		UserID:             u.ID,
		BusinessName:       businessName,
		SubscriptionStatus: provider.SubscriptionNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	r.s.users[u.ID] = &userRecord{User: u, verification: &v}
	r.s.providers[p.ID] = p

	return u, p, nil
}

func (r *UsersRepo) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.users {
		v := rec.verification
		if v == nil || v.Token != token || !v.ExpiresAt.After(now) {
			continue
		}

		rec.verification = nil
		rec.EmailVerified = true
		rec.UpdatedAt = now
		return rec.User, nil
	}

	return user.User{}, user.ErrInvalidVerificationToken
}

func (r *UsersRepo) SetPushToken(ctx context.Context, userID, token string) error {
	return r.setPushToken(userID, &token)
}

func (r *UsersRepo) ClearPushToken(ctx context.Context, userID string) error {
	return r.setPushToken(userID, nil)
}

func (r *UsersRepo) setPushToken(userID string, token *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	rec.PushToken = token
	return nil
}
