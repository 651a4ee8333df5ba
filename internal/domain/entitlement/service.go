package entitlement

import (
	"context"

	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/settings"
)

type SettingsReader interface {
	Get(ctx context.Context) (settings.AppSettings, error)
}

type BillingReader interface {
	GetBilling(ctx context.Context, providerID string) (provider.Billing, error)
}

type ConsumerCounter interface {
	CountForProvider(ctx context.Context, providerID string) (int, error)
}

type Service struct {
	settings  SettingsReader
	billing   BillingReader
	consumers ConsumerCounter
}

func NewService(s SettingsReader, b BillingReader, c ConsumerCounter) *Service {
	return &Service{settings: s, billing: b, consumers: c}
}

// ForProvider loads everything Evaluate needs. The provider must exist;
// otherwise provider.ErrNotFound is returned.
func (s *Service) ForProvider(ctx context.Context, providerID string) (Status, error) {
	appSettings, err := s.settings.Get(ctx)
	if err != nil {
		return Status{}, err
	}

	billing, err := s.billing.GetBilling(ctx, providerID)
	if err != nil {
		return Status{}, err
	}

	count, err := s.consumers.CountForProvider(ctx, providerID)
	if err != nil {
		return Status{}, err
	}

	return Evaluate(appSettings, billing, count), nil
}
