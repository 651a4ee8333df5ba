package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/consumer"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/stats"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/gin-gonic/gin"
)

type DashboardCollector interface {
	Collect(ctx context.Context, now time.Time) (stats.Dashboard, error)
}

type ProviderLister interface {
	ListForAdmin(ctx context.Context, limit int, after *utils.Cursor) ([]provider.AdminView, *string, error)
}

type ConsumerLister interface {
	ListForAdmin(ctx context.Context, limit int, after *utils.Cursor) ([]consumer.AdminView, *string, error)
}

type AdminHandler struct {
	stats     DashboardCollector
	providers ProviderLister
	consumers ConsumerLister
	log       *slog.Logger
}

func NewAdminHandler(stats DashboardCollector, providers ProviderLister, consumers ConsumerLister, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{
		stats:     stats,
		providers: providers,
		consumers: consumers,
		log:       log,
	}
}

func (h *AdminHandler) Stats(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	d, err := h.stats.Collect(cctx, time.Now().UTC())
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin.stats_failed", "err", err)
		RespondInternal(ctx, "Could not load stats")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func (h *AdminHandler) ListProviders(ctx *gin.Context) {
	limit, after, ok := pageParams(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, next, err := h.providers.ListForAdmin(cctx, limit, after)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin.list_providers_failed", "err", err)
		RespondInternal(ctx, "Could not list providers")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"limit":      limit,
		"nextCursor": next,
	})
}

func (h *AdminHandler) ListConsumers(ctx *gin.Context) {
	limit, after, ok := pageParams(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, next, err := h.consumers.ListForAdmin(cctx, limit, after)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "admin.list_consumers_failed", "err", err)
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
