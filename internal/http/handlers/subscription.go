package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/billing"
	"github.com/geocoder89/schedulehub/internal/domain/entitlement"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/gin-gonic/gin"
)

type EntitlementReader interface {
	ForProvider(ctx context.Context, providerID string) (entitlement.Status, error)
}

type PortalLinker interface {
	PortalURL(ctx context.Context, providerID string) (string, error)
}

type SubscriptionHandler struct {
	entitlements EntitlementReader
	portal       PortalLinker
	log          *slog.Logger
}

func NewSubscriptionHandler(entitlements EntitlementReader, portal PortalLinker, log *slog.Logger) *SubscriptionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SubscriptionHandler{entitlements: entitlements, portal: portal, log: log}
}

func (h *SubscriptionHandler) Status(ctx *gin.Context) {
	providerID, ok := providerIDOf(ctx)
	if !ok {
		RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	st, err := h.entitlements.ForProvider(cctx, providerID)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "subscription.status_failed", "provider_id", providerID, "err", err)
		RespondInternal(ctx, "Could not load subscription status")
		return
	}

	ctx.JSON(http.StatusOK, st)
}

// Portal opens a Stripe billing portal session for the caller's customer.
func (h *SubscriptionHandler) Portal(ctx *gin.Context) {
	providerID, ok := providerIDOf(ctx)
	if !ok {
		RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	url, err := h.portal.PortalURL(cctx, providerID)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrNoBillingCustomer):
			RespondError(ctx, http.StatusBadRequest, "no_billing_account", "No billing account found", nil)
		case errors.Is(err, provider.ErrNotFound):
			RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		case errors.Is(err, billing.ErrNotConfigured):
			RespondNotConfigured(ctx, "Billing is not configured")
		case errors.Is(err, billing.ErrUpstream):
			h.log.WarnContext(ctx.Request.Context(), "subscription.portal_upstream_failed", "provider_id", providerID, "err", err)
			RespondUpstream(ctx, "Could not open billing portal")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "subscription.portal_failed", "provider_id", providerID, "err", err)
			RespondInternal(ctx, "Could not open billing portal")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"url": url})
}
