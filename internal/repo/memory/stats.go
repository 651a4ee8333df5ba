package memory

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/booking"
	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/domain/user"
)

type StatsRepo struct {
	s *Store
}

// AddBooking records a booking for the dashboard counts.
func (s *Store) AddBooking(b booking.Booking) {
	s.mu.Lock()
	s.bookings = append(s.bookings, b)
	s.mu.Unlock()
}

// AddExchanges bumps the exchange counter by n.
func (s *Store) AddExchanges(n int) {
	s.mu.Lock()
	s.exchanges += n
	s.mu.Unlock()
}

func (r *StatsRepo) CountProviders(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, p := range r.s.providers {
		if owner, ok := r.s.users[p.UserID]; ok && owner.Role != user.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (r *StatsRepo) CountConsumers(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.s.consumers), nil
}

func (r *StatsRepo) CountBookingsFrom(ctx context.Context, now time.Time) (int, error) {
	return r.countBookings(func(b booking.Booking) bool { return b.IsUpcoming(now) }), nil
}

func (r *StatsRepo) CountBookingsBefore(ctx context.Context, now time.Time) (int, error) {
	return r.countBookings(func(b booking.Booking) bool { return !b.IsUpcoming(now) }), nil
}

func (r *StatsRepo) countBookings(match func(booking.Booking) bool) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, b := range r.s.bookings {
		if match(b) {
			n++
		}
	}
	return n
}

func (r *StatsRepo) CountExchanges(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.exchanges, nil
}

func (r *StatsRepo) CountOpenFeedback(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, f := range r.s.feedback {
		if f.Status == feedback.StatusOpen {
			n++
		}
	}
	return n, nil
}
