package booking

import "time"

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

type Booking struct {
	ID         string    `json:"id"`
	ConsumerID string    `json:"consumerId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Status     Status    `json:"status"`
}

// IsUpcoming splits bookings on startTime: at or after now is upcoming, before now is past.
func (b Booking) IsUpcoming(now time.Time) bool {
	return !b.StartTime.Before(now)
}
