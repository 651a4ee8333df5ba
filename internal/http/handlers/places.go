package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/schedulehub/internal/places"
	"github.com/gin-gonic/gin"
)

type Autocompleter interface {
	Autocomplete(ctx context.Context, input string) ([]places.Prediction, error)
}

type PlacesHandler struct {
	client Autocompleter
	log    *slog.Logger
}

func NewPlacesHandler(client Autocompleter, log *slog.Logger) *PlacesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PlacesHandler{client: client, log: log}
}

func (h *PlacesHandler) Autocomplete(ctx *gin.Context) {
	input := strings.TrimSpace(ctx.Query("input"))
	if input == "" {
		RespondBadRequest(ctx, "input is required", gin.H{"field": "input"})
		return
	}

	predictions, err := h.client.Autocomplete(ctx.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, places.ErrEmptyInput):
			RespondBadRequest(ctx, "input is required", gin.H{"field": "input"})
		case errors.Is(err, places.ErrNotConfigured):
			RespondNotConfigured(ctx, "Places API key not configured")
		case errors.Is(err, places.ErrUpstream):
			h.log.WarnContext(ctx.Request.Context(), "places.autocomplete_failed", "err", err)
			RespondUpstream(ctx, "Places lookup failed")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "places.autocomplete_failed", "err", err)
			RespondInternal(ctx, "Places lookup failed")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"predictions": predictions})
}
