package memory

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/enrollment"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
)

type EnrollmentRepo struct {
	s *Store
}

func (r *EnrollmentRepo) Create(ctx context.Context, req enrollment.CreateRequest) (enrollment.Request, error) {
	e := enrollment.NewFromCreateRequest(req)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.providers[e.ProviderID]; !ok {
		return enrollment.Request{}, provider.ErrNotFound
	}
	r.s.enrollments[e.ID] = e

	return e, nil
}

func (r *EnrollmentRepo) ListForProvider(ctx context.Context, providerID string, status *enrollment.Status) ([]enrollment.Request, error) {
	r.s.mu.RLock()
	items := make([]enrollment.Request, 0)
	for _, e := range r.s.enrollments {
		if e.ProviderID != providerID {
			continue
		}
		if status != nil && e.Status != *status {
			continue
		}
		items = append(items, e)
	}
	r.s.mu.RUnlock()

	return newestFirst(items, func(e enrollment.Request) (time.Time, string) { return e.CreatedAt, e.ID }, nil), nil
}

func (r *EnrollmentRepo) UpdateForProvider(ctx context.Context, providerID, id string, req enrollment.UpdateRequest) (enrollment.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enrollments[id]
	if !ok || e.ProviderID != providerID {
		return enrollment.Request{}, enrollment.ErrNotFound
	}

	if req.Status != nil {
		e.Status = *req.Status
	}
	if req.ProviderNotes != nil {
		notes := *req.ProviderNotes
		e.ProviderNotes = &notes
	}
	e.UpdatedAt = time.Now().UTC()
	r.s.enrollments[id] = e

	return e, nil
}
