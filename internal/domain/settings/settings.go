package settings

import "time"

// SingletonID is the primary key of the only app_settings row.
const SingletonID = "singleton"

// AppSettings is the process-wide platform configuration row.
type AppSettings struct {
	ID                string    `json:"id"`
	PaymentsEnabled   bool      `json:"paymentsEnabled"`
	MonthlyPriceCents int       `json:"monthlyPriceCents"`
	Currency          string    `json:"currency"`
	FreeConsumerLimit int       `json:"freeConsumerLimit"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Defaults mirror the column defaults used when the row is first created.
func Defaults() AppSettings {
	return AppSettings{
		ID:                SingletonID,
		PaymentsEnabled:   false,
		MonthlyPriceCents: 1900,
		Currency:          "usd",
		FreeConsumerLimit: 5,
	}
}

// Public is what unauthenticated clients see. Pricing is omitted entirely while payments are off.
type Public struct {
	PaymentsEnabled   bool    `json:"paymentsEnabled"`
	MonthlyPriceCents *int    `json:"monthlyPriceCents,omitempty"`
	Currency          *string `json:"currency,omitempty"`
	FreeConsumerLimit *int    `json:"freeConsumerLimit,omitempty"`
}

func (s AppSettings) Public() Public {
	if !s.PaymentsEnabled {
		return Public{PaymentsEnabled: false}
	}

	price, currency, limit := s.MonthlyPriceCents, s.Currency, s.FreeConsumerLimit

	return Public{
		PaymentsEnabled:   true,
		MonthlyPriceCents: &price,
		Currency:          &currency,
		FreeConsumerLimit: &limit,
	}
}

type UpdateRequest struct {
	PaymentsEnabled   *bool   `json:"paymentsEnabled"`
	MonthlyPriceCents *int    `json:"monthlyPriceCents" binding:"omitempty,min=0,max=10000000"`
	Currency          *string `json:"currency" binding:"omitempty,len=3"`
	FreeConsumerLimit *int    `json:"freeConsumerLimit" binding:"omitempty,min=0,max=100000"`
}

// Apply returns s with every non-nil field of req applied.
func (s AppSettings) Apply(req UpdateRequest) AppSettings {
	if req.PaymentsEnabled != nil {
		s.PaymentsEnabled = *req.PaymentsEnabled
	}
	if req.MonthlyPriceCents != nil {
		s.MonthlyPriceCents = *req.MonthlyPriceCents
	}
	if req.Currency != nil {
		s.Currency = *req.Currency
	}
	if req.FreeConsumerLimit != nil {
		s.FreeConsumerLimit = *req.FreeConsumerLimit
	}
	return s
}
