package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/schedulehub/internal/actorctx"
	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (user.Identity, error)
}

// Gate resolves the caller once per request and guards route groups by caller variant.
type Gate struct {
	jwt        TokenVerifier
	identities IdentityResolver
	prom       *observability.Prom
	log        *slog.Logger
}

func NewGate(jwt TokenVerifier, identities IdentityResolver, prom *observability.Prom, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{jwt: jwt, identities: identities, prom: prom, log: log}
}

// Resolve never rejects a request on its own. A missing, malformed or expired token, or
// a token for a deleted account, leaves the caller Anonymous. Only a failed identity
// lookup for a valid token aborts, since the caller cannot be determined.
func (g *Gate) Resolve() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller, err := g.resolve(ctx)
		if err != nil {
			g.log.ErrorContext(ctx.Request.Context(), "gate.resolve_identity_failed", "err", err)
			abortJSON(ctx, http.StatusInternalServerError, "internal_error", "Could not resolve caller")
			return
		}

		setCaller(ctx, caller)
		ctx.Next()
	}
}

func (g *Gate) resolve(ctx *gin.Context) (auth.Caller, error) {
	raw, ok := bearerToken(ctx.GetHeader("Authorization"))
	if !ok {
		return auth.Anonymous{}, nil
	}

	claims, err := g.jwt.VerifyAccessToken(raw)
	if err != nil {
		return auth.Anonymous{}, nil
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	// role and profile links come from the database, not from the token claims
	id, err := g.identities.ResolveIdentity(cctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return auth.Anonymous{}, nil
		}
		return nil, err
	}

	return auth.CallerFromIdentity(id), nil
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func setCaller(ctx *gin.Context, c auth.Caller) {
	ctx.Set(CtxCaller, c)
	ctx.Request = ctx.Request.WithContext(actorctx.WithCaller(ctx.Request.Context(), c))
}

// CallerFrom returns the caller resolved for this request, Anonymous if none.
func CallerFrom(ctx *gin.Context) auth.Caller {
	if v, ok := ctx.Get(CtxCaller); ok {
		if c, ok := v.(auth.Caller); ok && c != nil {
			return c
		}
	}
	return auth.Anonymous{}
}

func (g *Gate) reject(ctx *gin.Context, gate string, caller auth.Caller) {
	g.prom.RejectedByGate(gate, caller.Kind())
	abortJSON(ctx, http.StatusUnauthorized, "unauthorized", "Unauthorized")
}

func (g *Gate) RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller := CallerFrom(ctx)

		if _, ok := caller.(auth.Anonymous); ok {
			g.reject(ctx, "auth", caller)
			return
		}
		ctx.Next()
	}
}

// RequireAdmin admits only Admin callers. Everyone else, authenticated or not, gets 401.
func (g *Gate) RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller := CallerFrom(ctx)

		switch caller.(type) {
		case auth.Admin:
			ctx.Next()
		default:
			g.reject(ctx, "admin", caller)
		}
	}
}

// RequireProvider admits Provider callers with a linked provider row.
func (g *Gate) RequireProvider() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller := CallerFrom(ctx)

		switch c := caller.(type) {
		case auth.Provider:
			if !c.HasProfile() {
				g.prom.RejectedByGate("provider", "provider_without_profile")
				abortJSON(ctx, http.StatusBadRequest, "no_profile", "No provider profile")
				return
			}
			ctx.Next()
		default:
			g.reject(ctx, "provider", caller)
		}
	}
}
