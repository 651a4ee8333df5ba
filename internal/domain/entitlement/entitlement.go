// Package entitlement decides what a provider may do under the platform's
// billing settings.
package entitlement

import (
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/settings"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Status is the computed plan and limit state for one provider.
// When PaymentsEnabled is false only PaymentsEnabled, Unrestricted,
// ConsumerCount and CanAddConsumer are meaningful.
type Status struct {
	PaymentsEnabled        bool                        `json:"paymentsEnabled"`
	Unrestricted           bool                        `json:"unrestricted"`
	Plan                   Plan                        `json:"plan,omitempty"`
	SubscriptionStatus     provider.SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	HasBillingAccount      bool                        `json:"hasBillingAccount"`
	ConsumerCount          int                         `json:"consumerCount"`
	FreeConsumerLimit      *int                        `json:"freeConsumerLimit,omitempty"`
	RemainingFreeConsumers *int                        `json:"remainingFreeConsumers,omitempty"`
	MonthlyPriceCents      *int                        `json:"monthlyPriceCents,omitempty"`
	Currency               string                      `json:"currency,omitempty"`
	CanAddConsumer         bool                        `json:"canAddConsumer"`
}

// Evaluate is the pure entitlement rule. paymentsEnabled=false is a
// platform-wide kill switch: the provider's own billing state is ignored.
func Evaluate(s settings.AppSettings, b provider.Billing, consumerCount int) Status {
	hasBilling := b.StripeCustomerID != nil && *b.StripeCustomerID != ""

	if !s.PaymentsEnabled {
		return Status{
			PaymentsEnabled:   false,
			Unrestricted:      true,
			HasBillingAccount: hasBilling,
			ConsumerCount:     consumerCount,
			CanAddConsumer:    true,
		}
	}

	limit := s.FreeConsumerLimit
	price := s.MonthlyPriceCents

	st := Status{
		PaymentsEnabled:    true,
		Plan:               PlanFree,
		SubscriptionStatus: b.SubscriptionStatus,
		HasBillingAccount:  hasBilling,
		ConsumerCount:      consumerCount,
		FreeConsumerLimit:  &limit,
		MonthlyPriceCents:  &price,
		Currency:           s.Currency,
	}

	if st.SubscriptionStatus == "" {
		st.SubscriptionStatus = provider.SubscriptionNone
	}

	if b.SubscriptionStatus.Paid() {
		st.Plan = PlanPro
		st.Unrestricted = true
		st.CanAddConsumer = true
		return st
	}

	remaining := limit - consumerCount
	if remaining < 0 {
		remaining = 0
	}
	st.RemainingFreeConsumers = &remaining
	st.CanAddConsumer = remaining > 0

	return st
}
