package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/gin-gonic/gin"
)

type FeedbackStore interface {
	Create(ctx context.Context, req feedback.CreateRequest) (feedback.Feedback, error)
	List(ctx context.Context, filter feedback.ListFilter, after *utils.Cursor) ([]feedback.Feedback, *string, error)
	Update(ctx context.Context, id string, req feedback.UpdateRequest) (feedback.Feedback, error)
}

type FeedbackHandler struct {
	repo FeedbackStore
	log  *slog.Logger
}

func NewFeedbackHandler(repo FeedbackStore, log *slog.Logger) *FeedbackHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FeedbackHandler{repo: repo, log: log}
}

func (h *FeedbackHandler) Create(ctx *gin.Context) {
	userID, ok := auth.UserID(middlewares.CallerFrom(ctx))
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	var req feedback.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.UserID = userID

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	f, err := h.repo.Create(cctx, req)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "feedback.create_failed", "err", err)
		RespondInternal(ctx, "Could not submit feedback")
		return
	}

	ctx.JSON(http.StatusCreated, f)
}

// AdminList filters by ?category= and ?status=, newest first.
func (h *FeedbackHandler) AdminList(ctx *gin.Context) {
	limit, after, ok := pageParams(ctx)
	if !ok {
		return
	}

	filter := feedback.ListFilter{Limit: limit}

	if raw := ctx.Query("category"); raw != "" {
		filter.Category = &raw
	}

	if raw := ctx.Query("status"); raw != "" {
		status := feedback.Status(raw)
		if !status.Valid() {
			RespondBadRequest(ctx, feedback.ErrInvalidStatus.Error(), gin.H{"field": "status"})
			return
		}
		filter.Status = &status
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, next, err := h.repo.List(cctx, filter, after)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "feedback.list_failed", "err", err)
		RespondInternal(ctx, "Could not list feedback")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"limit":      limit,
		"nextCursor": next,
	})
}

// AdminUpdate moderates one feedback entry. The status must be open or resolved;
// anything else is rejected before the row is touched.
func (h *FeedbackHandler) AdminUpdate(ctx *gin.Context) {
	id := ctx.Param("id")

	var req feedback.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	if !validID(id) {
		RespondNotFound(ctx, "Feedback not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	f, err := h.repo.Update(cctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrNotFound):
			RespondNotFound(ctx, "Feedback not found")
		case errors.Is(err, feedback.ErrInvalidStatus), errors.Is(err, feedback.ErrEmptyUpdate):
			RespondBadRequest(ctx, err.Error(), nil)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "feedback.update_failed", "feedback_id", id, "err", err)
			RespondInternal(ctx, "Could not update feedback")
		}
		return
	}

	ctx.JSON(http.StatusOK, f)
}
