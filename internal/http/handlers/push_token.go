package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type PushTokenStore interface {
	SetPushToken(ctx context.Context, userID, token string) error
	ClearPushToken(ctx context.Context, userID string) error
}

type PushTokenHandler struct {
	users PushTokenStore
	log   *slog.Logger
}

func NewPushTokenHandler(users PushTokenStore, log *slog.Logger) *PushTokenHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PushTokenHandler{users: users, log: log}
}

type PushTokenRequest struct {
	Token string `json:"token" binding:"required,max=512"`
}

func (h *PushTokenHandler) Save(ctx *gin.Context) {
	userID, ok := auth.UserID(middlewares.CallerFrom(ctx))
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	var req PushTokenRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.SetPushToken(cctx, userID, req.Token); err != nil {
		h.respondStoreErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"saved": true})
}

func (h *PushTokenHandler) Clear(ctx *gin.Context) {
	userID, ok := auth.UserID(middlewares.CallerFrom(ctx))
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Unauthorized")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.ClearPushToken(cctx, userID); err != nil {
		h.respondStoreErr(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *PushTokenHandler) respondStoreErr(ctx *gin.Context, err error) {
	if errors.Is(err, user.ErrNotFound) {
		RespondNotFound(ctx, "User not found")
		return
	}
	h.log.ErrorContext(ctx.Request.Context(), "push_token.store_failed", "err", err)
	RespondInternal(ctx, "Could not update push token")
}
