package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/consumer"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/gin-gonic/gin"
)

type ConsumerStore interface {
	// Create inserts the consumer. A non-nil maxConsumers is checked against the
	// provider's current count in the same step as the insert.
	Create(ctx context.Context, req consumer.CreateRequest, maxConsumers *int) (consumer.Consumer, error)
	ListForProvider(ctx context.Context, providerID string, limit int, after *utils.Cursor) ([]consumer.Consumer, *string, error)
}

type ConsumersHandler struct {
	repo         ConsumerStore
	entitlements EntitlementReader
	log          *slog.Logger
}

func NewConsumersHandler(repo ConsumerStore, entitlements EntitlementReader, log *slog.Logger) *ConsumersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ConsumersHandler{repo: repo, entitlements: entitlements, log: log}
}

func (h *ConsumersHandler) List(ctx *gin.Context) {
	providerID, ok := providerIDOf(ctx)
	if !ok {
		RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		return
	}

	limit, after, ok := pageParams(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, next, err := h.repo.ListForProvider(cctx, providerID, limit, after)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "consumers.list_failed", "provider_id", providerID, "err", err)
		RespondInternal(ctx, "Could not list consumers")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"limit":      limit,
		"nextCursor": next,
	})
}

// Create adds a consumer if the provider's plan still allows one.
func (h *ConsumersHandler) Create(ctx *gin.Context) {
	providerID, ok := providerIDOf(ctx)
	if !ok {
		RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
		return
	}

	var req consumer.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.ProviderID = providerID

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	st, err := h.entitlements.ForProvider(cctx, providerID)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "consumers.entitlement_failed", "provider_id", providerID, "err", err)
		RespondInternal(ctx, "Could not create consumer")
		return
	}

	if !st.CanAddConsumer {
		RespondForbidden(ctx, "plan_limit_reached", "Free plan consumer limit reached")
		return
	}

	// the status above was read without a lock; the store rechecks the cap
	var maxConsumers *int
	if !st.Unrestricted {
		maxConsumers = st.FreeConsumerLimit
	}

	c, err := h.repo.Create(cctx, req, maxConsumers)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrNotFound):
			RespondError(ctx, http.StatusBadRequest, "no_profile", "No provider profile", nil)
			return
		case errors.Is(err, consumer.ErrLimitReached):
			RespondForbidden(ctx, "plan_limit_reached", "Free plan consumer limit reached")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "consumers.create_failed", "provider_id", providerID, "err", err)
		RespondInternal(ctx, "Could not create consumer")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}
