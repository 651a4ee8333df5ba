package feedback

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusResolved
}

var (
	ErrNotFound      = errors.New("feedback not found")
	ErrInvalidStatus = errors.New("status must be open or resolved")
	ErrEmptyUpdate   = errors.New("nothing to update")
)

type Feedback struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	UserEmail     string    `json:"userEmail,omitempty"`
	Category      string    `json:"category"`
	Message       string    `json:"message"`
	Status        Status    `json:"status"`
	AdminResponse *string   `json:"adminResponse,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	UserID   string `json:"-"`
	Category string `json:"category" binding:"required,oneof=bug feature general other"`
	Message  string `json:"message" binding:"required,min=3,max=5000"`
}

func NewFromCreateRequest(req CreateRequest) Feedback {
	now := time.Now().UTC()
	return Feedback{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Category:  req.Category,
		Message:   req.Message,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateRequest is an admin moderation change. Nil fields are left untouched.
type UpdateRequest struct {
	Status        *string `json:"status"`
	AdminResponse *string `json:"adminResponse" binding:"omitempty,max=5000"`
}

// Validate rejects unknown statuses and empty updates before any write happens.
func (r UpdateRequest) Validate() error {
	if r.Status == nil && r.AdminResponse == nil {
		return ErrEmptyUpdate
	}
	if r.Status != nil && !Status(*r.Status).Valid() {
		return ErrInvalidStatus
	}
	return nil
}

type ListFilter struct {
	Category *string
	Status   *Status
	Limit    int
}
