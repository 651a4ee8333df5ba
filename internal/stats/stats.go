// Package stats computes the admin dashboard counts.
package stats

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Counter is the read side the aggregator fans out over. Each method is an
// independent query with no ordering dependency on the others.
type Counter interface {
	CountProviders(ctx context.Context) (int, error)
	CountConsumers(ctx context.Context) (int, error)
	CountBookingsFrom(ctx context.Context, now time.Time) (int, error)
	CountBookingsBefore(ctx context.Context, now time.Time) (int, error)
	CountExchanges(ctx context.Context) (int, error)
	CountOpenFeedback(ctx context.Context) (int, error)
}

type Dashboard struct {
	Providers         int       `json:"providers"`
	Consumers         int       `json:"consumers"`
	ScheduledBookings int       `json:"scheduledBookings"`
	PastBookings      int       `json:"pastBookings"`
	Exchanges         int       `json:"exchanges"`
	OpenFeedback      int       `json:"openFeedback"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

type Aggregator struct {
	counts Counter
}

func NewAggregator(c Counter) *Aggregator {
	return &Aggregator{counts: c}
}

// Collect runs all six counts concurrently. The result is all-or-nothing:
// the first failing count cancels the rest and its error is returned.
// Both booking counts share now, so each booking lands in exactly one of them.
func (a *Aggregator) Collect(ctx context.Context, now time.Time) (Dashboard, error) {
	var d Dashboard

	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&d.Providers, a.counts.CountProviders)
	count(&d.Consumers, a.counts.CountConsumers)
	count(&d.ScheduledBookings, func(ctx context.Context) (int, error) {
		return a.counts.CountBookingsFrom(ctx, now)
	})
	count(&d.PastBookings, func(ctx context.Context) (int, error) {
		return a.counts.CountBookingsBefore(ctx, now)
	})
	count(&d.Exchanges, a.counts.CountExchanges)
	count(&d.OpenFeedback, a.counts.CountOpenFeedback)

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.GeneratedAt = now
	return d, nil
}
