package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type VerificationStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (user.User, error)
}

type VerificationHandler struct {
	users VerificationStore
	log   *slog.Logger
	now   func() time.Time
}

func NewVerificationHandler(users VerificationStore, log *slog.Logger) *VerificationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &VerificationHandler{
		users: users,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

const invalidVerificationLink = "Invalid or expired verification link"

// VerifyEmail consumes a one-time token. Unknown, expired and already used tokens
// all produce the same response.
func (h *VerificationHandler) VerifyEmail(ctx *gin.Context) {
	token := strings.TrimSpace(ctx.Param("token"))
	if token == "" {
		RespondError(ctx, http.StatusBadRequest, "invalid_token", invalidVerificationLink, nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.ConsumeVerificationToken(cctx, token, h.now())
	if err != nil {
		if !errors.Is(err, user.ErrInvalidVerificationToken) {
			h.log.ErrorContext(ctx.Request.Context(), "verification.consume_failed", "err", err)
			RespondInternal(ctx, "Could not verify email")
			return
		}
		RespondError(ctx, http.StatusBadRequest, "invalid_token", invalidVerificationLink, nil)
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "verification.email_verified", "user_id", u.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"verified": true,
		"email":    u.Email,
	})
}

type CheckVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CheckVerification is polled by the signup screen. Only an existing provider
// account that is still unverified reports false, so the endpoint cannot be used
// to discover which emails are registered.
func (h *VerificationHandler) CheckVerification(ctx *gin.Context) {
	var req CheckVerificationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	verified := true

	u, err := h.users.GetByEmail(cctx, strings.ToLower(strings.TrimSpace(req.Email)))
	switch {
	case err == nil:
		verified = !u.NeedsVerification()
	case errors.Is(err, user.ErrNotFound):
	default:
		h.log.ErrorContext(ctx.Request.Context(), "verification.check_failed", "err", err)
	}

	ctx.JSON(http.StatusOK, gin.H{"verified": verified})
}
