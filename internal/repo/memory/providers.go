package memory

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/consumer"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/utils"
)

type ProvidersRepo struct {
	s *Store
}

func (r *ProvidersRepo) GetBilling(ctx context.Context, providerID string) (provider.Billing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.providers[providerID]
	if !ok {
		return provider.Billing{}, provider.ErrNotFound
	}

	return provider.Billing{
		ProviderID:         p.ID,
		StripeCustomerID:   p.StripeCustomerID,
		SubscriptionStatus: p.SubscriptionStatus,
		CurrentPeriodEnd:   p.CurrentPeriodEnd,
	}, nil
}

type ConsumersRepo struct {
	s *Store
}

func (r *ConsumersRepo) CountForProvider(ctx context.Context, providerID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, c := range r.s.consumers {
		if c.ProviderID == providerID {
			n++
		}
	}
	return n, nil
}

func (r *ConsumersRepo) Create(ctx context.Context, req consumer.CreateRequest, maxConsumers *int) (consumer.Consumer, error) {
	c := consumer.NewFromCreateRequest(req)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.providers[c.ProviderID]; !ok {
		return consumer.Consumer{}, provider.ErrNotFound
	}

	if maxConsumers != nil {
		n := 0
		for _, existing := range r.s.consumers {
			if existing.ProviderID == c.ProviderID {
				n++
			}
		}
		if n >= *maxConsumers {
			return consumer.Consumer{}, consumer.ErrLimitReached
		}
	}
	r.s.consumers[c.ID] = c

	return c, nil
}

func (r *ConsumersRepo) ListForProvider(ctx context.Context, providerID string, limit int, after *utils.Cursor) ([]consumer.Consumer, *string, error) {
	limit = clampLimit(limit)

	r.s.mu.RLock()
	items := make([]consumer.Consumer, 0)
	for _, c := range r.s.consumers {
		if c.ProviderID == providerID {
			items = append(items, c)
		}
	}
	r.s.mu.RUnlock()

	key := func(c consumer.Consumer) (time.Time, string) { return c.CreatedAt, c.ID }
	items = newestFirst(items, key, after)

	if len(items) > limit+1 {
		items = items[:limit+1]
	}
	return utils.Page(items, limit, key)
}

func (r *ProvidersRepo) ListForAdmin(ctx context.Context, limit int, after *utils.Cursor) ([]provider.AdminView, *string, error) {
	limit = clampLimit(limit)

	r.s.mu.RLock()
	counts := make(map[string]int)
	for _, c := range r.s.consumers {
		counts[c.ProviderID]++
	}

	items := make([]provider.AdminView, 0, len(r.s.providers))
	for _, p := range r.s.providers {
		owner, ok := r.s.users[p.UserID]
		if !ok || owner.Role == user.RoleAdmin {
			continue
		}
		items = append(items, provider.AdminView{
			ID:                 p.ID,
			BusinessName:       p.BusinessName,
			OwnerName:          owner.Name,
			OwnerEmail:         owner.Email,
			EmailVerified:      owner.EmailVerified,
			SubscriptionStatus: p.SubscriptionStatus,
			ConsumerCount:      counts[p.ID],
			CreatedAt:          p.CreatedAt,
		})
	}
	r.s.mu.RUnlock()

	key := func(v provider.AdminView) (time.Time, string) { return v.CreatedAt, v.ID }
	items = newestFirst(items, key, after)

	return utils.Page(items, limit, key)
}

func (r *ConsumersRepo) ListForAdmin(ctx context.Context, limit int, after *utils.Cursor) ([]consumer.AdminView, *string, error) {
	limit = clampLimit(limit)

	r.s.mu.RLock()
	items := make([]consumer.AdminView, 0, len(r.s.consumers))
	for _, c := range r.s.consumers {
		items = append(items, consumer.AdminView{
			ID:              c.ID,
			Name:            c.Name,
			Email:           c.Email,
			ServiceType:     c.ServiceType,
			BookingDuration: c.BookingDuration,
			ProviderID:      c.ProviderID,
			BusinessName:    r.s.providers[c.ProviderID].BusinessName,
			CreatedAt:       c.CreatedAt,
		})
	}
	r.s.mu.RUnlock()

	key := func(v consumer.AdminView) (time.Time, string) { return v.CreatedAt, v.ID }
	items = newestFirst(items, key, after)

	return utils.Page(items, limit, key)
}
