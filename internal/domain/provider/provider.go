package provider

import (
	"errors"
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Paid reports whether the status grants the paid plan.
func (s SubscriptionStatus) Paid() bool {
	return s == SubscriptionActive || s == SubscriptionTrialing
}

var (
	ErrNotFound          = errors.New("provider not found")
	ErrNoBillingCustomer = errors.New("provider has no billing customer")
)

type Provider struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"userId"`
	BusinessName         string             `json:"businessName"`
	StripeCustomerID     *string            `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID *string            `json:"-"`
	SubscriptionStatus   SubscriptionStatus `json:"subscriptionStatus"`
	CurrentPeriodEnd     *time.Time         `json:"currentPeriodEnd,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Billing is the slice of a provider the entitlement evaluator needs.
type Billing struct {
	ProviderID         string
	StripeCustomerID   *string
	SubscriptionStatus SubscriptionStatus
	CurrentPeriodEnd   *time.Time
}

// AdminView is a provider row as listed on the admin dashboard.
type AdminView struct {
	ID                 string             `json:"id"`
	BusinessName       string             `json:"businessName"`
	OwnerName          string             `json:"ownerName"`
	OwnerEmail         string             `json:"ownerEmail"`
	EmailVerified      bool               `json:"emailVerified"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	ConsumerCount      int                `json:"consumerCount"`
	CreatedAt          time.Time          `json:"createdAt"`
}
