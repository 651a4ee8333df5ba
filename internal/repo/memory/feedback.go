package memory

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/utils"
)

type FeedbackRepo struct {
	s *Store
}

func (r *FeedbackRepo) Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error) {
	f := feedback.NewFromCreateRequest(req)

	r.s.mu.Lock()
	r.s.feedback[f.ID] = f
	r.s.mu.Unlock()

	return r.GetByID(ctx, f.ID)
}

func (r *FeedbackRepo) GetByID(ctx context.Context, id string) (feedback.Feedback, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.feedback[id]
	if !ok {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	return r.withEmail(f), nil
}

func (r *FeedbackRepo) withEmail(f feedback.Feedback) feedback.Feedback {
	if u, ok := r.s.users[f.UserID]; ok {
		f.UserEmail = u.Email
	}
	return f
}

func (r *FeedbackRepo) List(ctx context.Context, filter feedback.ListFilter, after *utils.Cursor) ([]feedback.Feedback, *string, error) {
	limit := clampLimit(filter.Limit)

	r.s.mu.RLock()
	items := make([]feedback.Feedback, 0, len(r.s.feedback))
	for _, f := range r.s.feedback {
		if filter.Category != nil && f.Category != *filter.Category {
			continue
		}
		if filter.Status != nil && f.Status != *filter.Status {
			continue
		}
		items = append(items, r.withEmail(f))
	}
	r.s.mu.RUnlock()

	key := func(f feedback.Feedback) (time.Time, string) { return f.CreatedAt, f.ID }
	items = newestFirst(items, key, after)

	if len(items) > limit+1 {
		items = items[:limit+1]
	}
	return utils.Page(items, limit, key)
}

func (r *FeedbackRepo) Update(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error) {
	if err := req.Validate(); err != nil {
		return feedback.Feedback{}, err
	}

	r.s.mu.Lock()
	f, ok := r.s.feedback[id]
	if !ok {
		r.s.mu.Unlock()
		return feedback.Feedback{}, feedback.ErrNotFound
	}

	if req.Status != nil {
		f.Status = feedback.Status(*req.Status)
	}
	if req.AdminResponse != nil {
		resp := *req.AdminResponse
		f.AdminResponse = &resp
	}
	f.UpdatedAt = time.Now().UTC()
	r.s.feedback[id] = f
	r.s.mu.Unlock()

	return r.GetByID(ctx, id)
}
