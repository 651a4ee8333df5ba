package consumer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("consumer not found")
	// ErrLimitReached is returned by stores when a capped create would exceed the cap.
	ErrLimitReached = errors.New("consumer limit reached")
)

type Consumer struct {
	ID              string    `json:"id"`
	ProviderID      string    `json:"providerId"`
	UserID          *string   `json:"userId,omitempty"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ServiceType     string    `json:"serviceType"`
	BookingDuration int       `json:"bookingDuration"` // minutes
	CreatedAt       time.Time `json:"createdAt"`
}

type CreateRequest struct {
	ProviderID      string `json:"-"`
	Name            string `json:"name" binding:"required,min=2,max=120"`
	Email           string `json:"email" binding:"required,email"`
	ServiceType     string `json:"serviceType" binding:"required,max=80"`
	BookingDuration int    `json:"bookingDuration" binding:"required,min=5,max=480"`
}

func NewFromCreateRequest(req CreateRequest) Consumer {
	return Consumer{
		ID:              uuid.NewString(),
		ProviderID:      req.ProviderID,
		Name:            req.Name,
		Email:           req.Email,
		ServiceType:     req.ServiceType,
		BookingDuration: req.BookingDuration,
		CreatedAt:       time.Now().UTC(),
	}
}

// AdminView is a consumer as listed across tenants on the admin dashboard.
type AdminView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ServiceType     string    `json:"serviceType"`
	BookingDuration int       `json:"bookingDuration"`
	ProviderID      string    `json:"providerId"`
	BusinessName    string    `json:"businessName"`
	CreatedAt       time.Time `json:"createdAt"`
}
