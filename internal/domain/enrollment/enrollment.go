package enrollment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

var ErrNotFound = errors.New("enrollment request not found")

type Request struct {
	ID            string    `json:"id"`
	ProviderID    string    `json:"providerId"`
	UserID        *string   `json:"userId,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	ServiceType   string    `json:"serviceType,omitempty"`
	Message       string    `json:"message,omitempty"`
	Status        Status    `json:"status"`
	ProviderNotes *string   `json:"providerNotes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	ProviderID  string  `json:"-"`
	UserID      *string `json:"-"`
	Name        string  `json:"name" binding:"required,min=2,max=120"`
	Email       string  `json:"email" binding:"required,email"`
	Phone       string  `json:"phone" binding:"omitempty,max=40"`
	ServiceType string  `json:"serviceType" binding:"omitempty,max=80"`
	Message     string  `json:"message" binding:"omitempty,max=2000"`
}

func NewFromCreateRequest(req CreateRequest) Request {
	now := time.Now().UTC()
	return Request{
		ID:          uuid.NewString(),
		ProviderID:  req.ProviderID,
		UserID:      req.UserID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ServiceType: req.ServiceType,
		Message:     req.Message,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type UpdateRequest struct {
	Status        *Status `json:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	ProviderNotes *string `json:"providerNotes" binding:"omitempty,max=2000"`
}
