package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/domain/enrollment"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type EnrollmentStore interface {
	Create(ctx context.Context, req enrollment.CreateRequest) (enrollment.Request, error)
	ListForProvider(ctx context.Context, providerID string, status *enrollment.Status) ([]enrollment.Request, error)
	UpdateForProvider(ctx context.Context, providerID, id string, req enrollment.UpdateRequest) (enrollment.Request, error)
}

type EnrollmentHandler struct {
	repo EnrollmentStore
	log  *slog.Logger
}

func NewEnrollmentHandler(repo EnrollmentStore, log *slog.Logger) *EnrollmentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EnrollmentHandler{repo: repo, log: log}
}

// Create files a PENDING request with a provider. Signed-in callers are linked to it.
func (h *EnrollmentHandler) Create(ctx *gin.Context) {
	providerID := ctx.Param("id")
	if !validID(providerID) {
		RespondNotFound(ctx, "Provider not found")
		return
	}

	var req enrollment.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.ProviderID = providerID
	if userID, ok := auth.UserID(middlewares.CallerFrom(ctx)); ok {
		req.UserID = &userID
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.repo.Create(cctx, req)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			RespondNotFound(ctx, "Provider not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "enrollment.create_failed", "provider_id", providerID, "err", err)
		RespondInternal(ctx, "Could not create enrollment request")
		return
	}

	ctx.JSON(http.StatusCreated, e)
}

func (h *EnrollmentHandler) List(ctx *gin.Context) {
	providerID, ok := providerIDOf(ctx)
	if !ok {
		RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		return
	}

	var status *enrollment.Status
	if raw := ctx.Query("status"); raw != "" {
		s := enrollment.Status(raw)
		if !s.Valid() {
			RespondBadRequest(ctx, "status must be PENDING, APPROVED or REJECTED", gin.H{"field": "status"})
			return
		}
		status = &s
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.repo.ListForProvider(cctx, providerID, status)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "enrollment.list_failed", "provider_id", providerID, "err", err)
		RespondInternal(ctx, "Could not list enrollment requests")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// Update changes status or notes on one of the caller's own requests.
// Requests belonging to other providers read as not found.
func (h *EnrollmentHandler) Update(ctx *gin.Context) {
	providerID, ok := providerIDOf(ctx)
	if !ok {
		RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		return
	}

	var req enrollment.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Status == nil && req.ProviderNotes == nil {
		RespondBadRequest(ctx, "Nothing to update", nil)
		return
	}

	id := ctx.Param("id")
	if !validID(id) {
		RespondNotFound(ctx, "Enrollment request not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.repo.UpdateForProvider(cctx, providerID, id, req)
	if err != nil {
		if errors.Is(err, enrollment.ErrNotFound) {
			RespondNotFound(ctx, "Enrollment request not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "enrollment.update_failed", "enrollment_id", id, "err", err)
		RespondInternal(ctx, "Could not update enrollment request")
		return
	}

	ctx.JSON(http.StatusOK, e)
}
