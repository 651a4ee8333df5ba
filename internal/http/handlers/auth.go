package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/session"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/notifications"
	"github.com/geocoder89/schedulehub/internal/security"
	"github.com/gin-gonic/gin"
)

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	CreateProviderAccount(ctx context.Context, u user.User, businessName string, v user.Verification) (user.User, provider.Provider, error)
}

type SessionStore interface {
	Issue(ctx context.Context, row session.RefreshToken) error
	Rotate(ctx context.Context, id, presentedHash string, next session.RefreshToken) (session.RefreshToken, error)
	RevokeByID(ctx context.Context, id string) error
}

type AuthHandler struct {
	accounts AccountStore
	sessions SessionStore
	jwt      *auth.Manager
	notifier notifications.Notifier
	cfg      config.Config
	log      *slog.Logger
}

func NewAuthHandler(accounts AccountStore, sessions SessionStore, jwtManager *auth.Manager, notifier notifications.Notifier, cfg config.Config, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		jwt:      jwtManager,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	Name         string `json:"name" binding:"required,max=120"`
	BusinessName string `json:"businessName" binding:"required,min=2,max=120"`
}

// SignUp registers a provider account and its business profile, then emails a
// verification link. No session is issued until the address is verified.
func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		// max=72 counts characters; bcrypt's limit is in bytes
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondBadRequest(ctx, "Password must be at most 72 bytes", gin.H{"field": "password"})
			return
		}
		RespondInternal(ctx, "Could not create account")
		return
	}

	token, err := security.NewOpaqueToken()
	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	v := user.Verification{Token: token, ExpiresAt: time.Now().UTC().Add(user.VerificationTTL)}

	u, p, err := h.accounts.CreateProviderAccount(cctx, user.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         req.Name,
	}, req.BusinessName, v)
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "auth.signup_failed", "err", err)
		RespondInternal(ctx, "Could not create account")
		return
	}

	// the account is committed; a failed send must not fail signup
	err = h.notifier.SendVerificationEmail(cctx, notifications.VerificationEmail{
		Email: u.Email,
		Name:  u.Name,
		Link:  h.verificationLink(token),
	})
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "auth.verification_email_failed", "user_id", u.ID, "err", err)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":                 u,
		"providerId":           p.ID,
		"verificationRequired": true,
	})
}

func (h *AuthHandler) verificationLink(token string) string {
	return strings.TrimRight(h.cfg.AuthURL, "/") + "/api/auth/verify-email/" + token
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.accounts.GetByEmail(cctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.ErrorContext(ctx.Request.Context(), "auth.login_lookup_failed", "err", err)
		}
		security.SpendCompare(req.Password)
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if foundUser.NeedsVerification() {
		RespondForbidden(ctx, "email_not_verified", "Verify your email address before signing in.")
		return
	}

	accessToken, err := h.issueSession(ctx, cctx, foundUser.ID, foundUser.Email, foundUser.Role)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "auth.issue_session_failed", "err", err)
		RespondInternal(ctx, "Could not create session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"user":        foundUser,
	})
}

// Refresh rotates the refresh cookie. Presenting a token that was already rotated
// ends every session of that account.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		RespondUnauthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	_, err = h.sessions.Rotate(cctx, claims.JTI, h.jwt.HashRefreshToken(raw), session.RefreshToken{
		ID:        newJTI,
		UserID:    claims.UserID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			RespondUnauthorized(ctx, "expired_refresh", "Refresh token expired.")
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrRevoked), errors.Is(err, session.ErrMismatch):
			h.clearRefreshCookie(ctx)
			RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "auth.refresh_failed", "err", err)
			RespondInternal(ctx, "Could not refresh session")
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.setRefreshCookie(ctx, newRaw, newExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
	})
}

// Logout always succeeds and clears the cookie; a valid token is revoked as well.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	defer func() {
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
	}()

	raw, err := ctx.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.sessions.RevokeByID(cctx, claims.JTI); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "auth.logout_revoke_failed", "err", err)
	}
}

func (h *AuthHandler) issueSession(ctx *gin.Context, cctx context.Context, userID, email string, role user.Role) (string, error) {
	accessToken, err := h.jwt.GenerateAccessToken(userID, email, role)
	if err != nil {
		return "", err
	}

	rawRefreshToken, jti, expiresAt, err := h.jwt.GenerateRefreshToken(userID, email, role)
	if err != nil {
		return "", err
	}

	err = h.sessions.Issue(cctx, session.RefreshToken{
		ID:        jti,
		UserID:    userID,
		TokenHash: h.jwt.HashRefreshToken(rawRefreshToken),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	h.setRefreshCookie(ctx, rawRefreshToken, expiresAt)

	return accessToken, nil
}

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/auth"
)

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, raw, maxAge, refreshCookiePath, "", secure, true)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", secure, true)
}
