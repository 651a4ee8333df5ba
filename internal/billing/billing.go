// Package billing opens Stripe customer portal sessions for providers.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

var (
	ErrNotConfigured = errors.New("stripe secret key not configured")
	ErrUpstream      = errors.New("stripe request failed")
)

// PortalOpener creates a hosted billing portal session and returns its URL.
type PortalOpener interface {
	OpenPortal(ctx context.Context, customerID, returnURL string) (string, error)
}

type StripePortal struct {
	api  *client.API
	prom *observability.Prom
}

// NewStripePortal returns a portal client. With an empty key every call fails with ErrNotConfigured.
func NewStripePortal(secretKey string, prom *observability.Prom) *StripePortal {
	return newStripePortal(secretKey, "", prom)
}

func newStripePortal(secretKey, apiURL string, prom *observability.Prom) *StripePortal {
	if secretKey == "" {
		return &StripePortal{prom: prom}
	}

	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if apiURL != "" {
		cfg.URL = stripe.String(apiURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}

	return &StripePortal{api: client.New(secretKey, backends), prom: prom}
}

func (p *StripePortal) OpenPortal(ctx context.Context, customerID, returnURL string) (url string, err error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}

	start := time.Now()
	defer func() { p.prom.ObserveUpstream("stripe", start, err) }()

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return sess.URL, nil
}

type BillingReader interface {
	GetBilling(ctx context.Context, providerID string) (provider.Billing, error)
}

// Service resolves a provider's Stripe customer and opens the portal for it.
type Service struct {
	billing   BillingReader
	portal    PortalOpener
	returnURL string
}

func NewService(b BillingReader, portal PortalOpener, appURL string) *Service {
	return &Service{
		billing:   b,
		portal:    portal,
		returnURL: strings.TrimRight(appURL, "/") + "/dashboard/billing",
	}
}

// PortalURL fails with provider.ErrNoBillingCustomer when the provider never subscribed.
func (s *Service) PortalURL(ctx context.Context, providerID string) (string, error) {
	b, err := s.billing.GetBilling(ctx, providerID)
	if err != nil {
		return "", err
	}

	if b.StripeCustomerID == nil || *b.StripeCustomerID == "" {
		return "", provider.ErrNoBillingCustomer
	}

	return s.portal.OpenPortal(ctx, *b.StripeCustomerID, s.returnURL)
}
