package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/settings"
	"github.com/gin-gonic/gin"
)

type SettingsStore interface {
	Get(ctx context.Context) (settings.AppSettings, error)
	Update(ctx context.Context, req settings.UpdateRequest) (settings.AppSettings, error)
}

type SettingsHandler struct {
	repo SettingsStore
	log  *slog.Logger
}

func NewSettingsHandler(repo SettingsStore, log *slog.Logger) *SettingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SettingsHandler{repo: repo, log: log}
}

// Public returns the pricing a visitor may see. With payments off the body is
// exactly {"paymentsEnabled":false}.
func (h *SettingsHandler) Public(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	s, err := h.repo.Get(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "settings.get_failed", "err", err)
		RespondInternal(ctx, "Could not load settings")
		return
	}

	RespondConditional(ctx, s.Public())
}

func (h *SettingsHandler) AdminGet(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	s, err := h.repo.Get(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "settings.get_failed", "err", err)
		RespondInternal(ctx, "Could not load settings")
		return
	}

	ctx.JSON(http.StatusOK, s)
}

func (h *SettingsHandler) AdminUpdate(ctx *gin.Context) {
	var req settings.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.PaymentsEnabled == nil && req.MonthlyPriceCents == nil && req.Currency == nil && req.FreeConsumerLimit == nil {
		RespondBadRequest(ctx, "Nothing to update", nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	s, err := h.repo.Update(cctx, req)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "settings.update_failed", "err", err)
		RespondInternal(ctx, "Could not update settings")
		return
	}

	ctx.JSON(http.StatusOK, s)
}
