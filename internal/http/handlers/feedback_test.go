package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/http/handlers"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/google/uuid"
)

type fakeFeedbackRepo struct {
	createFn func(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error)
	listFn   func(ctx context.Context, filter feedback.ListFilter, after *utils.Cursor) ([]feedback.Feedback, *string, error)
	updateFn func(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error)

	updateCalls int
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return feedback.NewFromCreateRequest(req), nil
}

func (f *fakeFeedbackRepo) List(ctx context.Context, filter feedback.ListFilter, after *utils.Cursor) ([]feedback.Feedback, *string, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter, after)
	}
	return []feedback.Feedback{}, nil, nil
}

func (f *fakeFeedbackRepo) Update(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error) {
	f.updateCalls++
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return feedback.Feedback{ID: id}, nil
}

func TestFeedbackAdminUpdate(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name        string
		id          string
		body        string
		repoSetUp   func(*fakeFeedbackRepo)
		wantStatus  int
		wantUpdates int
	}{
		{
			name:        "resolve",
			id:          id,
			body:        `{"status":"resolved","adminResponse":"fixed in 1.2"}`,
			wantStatus:  http.StatusOK,
			wantUpdates: 1,
		},
		{
			name:        "archived_status_rejected_before_write",
			id:          id,
			body:        `{"status":"archived"}`,
			wantStatus:  http.StatusBadRequest,
			wantUpdates: 0,
		},
		{
			name:        "uppercase_status_rejected",
			id:          id,
			body:        `{"status":"RESOLVED"}`,
			wantStatus:  http.StatusBadRequest,
			wantUpdates: 0,
		},
		{
			name:        "empty_update",
			id:          id,
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantUpdates: 0,
		},
		{
			name:        "malformed_id",
			id:          "not-a-uuid",
			body:        `{"status":"open"}`,
			wantStatus:  http.StatusNotFound,
			wantUpdates: 0,
		},
		{
			name: "unknown_id",
			id:   id,
			body: `{"status":"open"}`,
			repoSetUp: func(f *fakeFeedbackRepo) {
				f.updateFn = func(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error) {
					return feedback.Feedback{}, feedback.ErrNotFound
				}
			},
			wantStatus:  http.StatusNotFound,
			wantUpdates: 1,
		},
		{
			name: "repo_error",
			id:   id,
			body: `{"adminResponse":"thanks"}`,
			repoSetUp: func(f *fakeFeedbackRepo) {
				f.updateFn = func(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error) {
					return feedback.Feedback{}, errors.New("db down")
				}
			},
			wantStatus:  http.StatusInternalServerError,
			wantUpdates: 1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeFeedbackRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewFeedbackHandler(repo, nil)
			r := setupRouter(http.MethodPut, "/admin/feedback/:id", auth.Admin{UserID: "a1"}, h.AdminUpdate)

			w := doRequest(r, http.MethodPut, "/admin/feedback/"+tt.id, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if repo.updateCalls != tt.wantUpdates {
				t.Fatalf("got %d update calls, want %d", repo.updateCalls, tt.wantUpdates)
			}
		})
	}
}

func TestFeedbackAdminUpdateArchivedMessage(t *testing.T) {
	h := handlers.NewFeedbackHandler(&fakeFeedbackRepo{}, nil)
	r := setupRouter(http.MethodPut, "/admin/feedback/:id", auth.Admin{UserID: "a1"}, h.AdminUpdate)

	w := doRequest(r, http.MethodPut, "/admin/feedback/"+uuid.NewString(), `{"status":"archived"}`)

	body := decodeError(t, w)
	if body.Error != feedback.ErrInvalidStatus.Error() || body.Code != "invalid_request" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestFeedbackAdminList(t *testing.T) {
	t.Run("passes_filters", func(t *testing.T) {
		var got feedback.ListFilter
		repo := &fakeFeedbackRepo{
			listFn: func(ctx context.Context, filter feedback.ListFilter, after *utils.Cursor) ([]feedback.Feedback, *string, error) {
				got = filter
				return []feedback.Feedback{{ID: "f1", Status: feedback.StatusOpen}}, nil, nil
			},
		}

		h := handlers.NewFeedbackHandler(repo, nil)
		r := setupRouter(http.MethodGet, "/admin/feedback", auth.Admin{}, h.AdminList)

		w := doRequest(r, http.MethodGet, "/admin/feedback?status=open&category=bug&limit=5", "")

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
		if got.Limit != 5 || got.Status == nil || *got.Status != feedback.StatusOpen || got.Category == nil || *got.Category != "bug" {
			t.Fatalf("unexpected filter: %+v", got)
		}
	})

	badQueries := []string{
		"?status=archived",
		"?limit=0",
		"?limit=101",
		"?cursor=bm90LWpzb24",
		// well-formed cursor whose id is not a UUID
		"?cursor=eyJjcmVhdGVkQXQiOiIyMDI0LTAxLTAxVDAwOjAwOjAwWiIsImlkIjoibm90LWEtdXVpZCJ9",
	}
	for _, q := range badQueries {
		q := q
		t.Run("bad_query"+q, func(t *testing.T) {
			h := handlers.NewFeedbackHandler(&fakeFeedbackRepo{}, nil)
			r := setupRouter(http.MethodGet, "/admin/feedback", auth.Admin{}, h.AdminList)

			w := doRequest(r, http.MethodGet, "/admin/feedback"+q, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestFeedbackCreate(t *testing.T) {
	var got feedback.CreateRequest
	repo := &fakeFeedbackRepo{
		createFn: func(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error) {
			got = req
			f := feedback.NewFromCreateRequest(req)
			f.CreatedAt = time.Now().UTC()
			return f, nil
		},
	}

	h := handlers.NewFeedbackHandler(repo, nil)

	r := setupRouter(http.MethodPost, "/feedback", auth.Consumer{UserID: "u-9"}, h.Create)
	w := doRequest(r, http.MethodPost, "/feedback", `{"category":"bug","message":"calendar is off by one"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if got.UserID != "u-9" {
		t.Fatalf("feedback should be attributed to the caller, got %q", got.UserID)
	}

	anon := setupRouter(http.MethodPost, "/feedback", auth.Anonymous{}, h.Create)
	w = doRequest(anon, http.MethodPost, "/feedback", `{"category":"bug","message":"hello"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: got status %d, want 401", w.Code)
	}
}
