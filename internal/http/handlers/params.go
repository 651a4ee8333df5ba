package handlers

import (
	"strconv"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/http/middlewares"
	"github.com/geocoder89/schedulehub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pageParams reads ?limit=&cursor=. limit defaults to 20 and must be 1..100.
func pageParams(ctx *gin.Context) (limit int, after *utils.Cursor, ok bool) {
	limit = 20

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(ctx, "limit must be between 1 and 100", gin.H{"field": "limit"})
			return 0, nil, false
		}
		limit = n
	}

	// row ids are UUIDs; anything else would fail inside the keyset comparison
	after, err := utils.DecodeCursor(ctx.Query("cursor"))
	if err != nil || (after != nil && !validID(after.ID)) {
		RespondBadRequest(ctx, "Invalid cursor", gin.H{"field": "cursor"})
		return 0, nil, false
	}

	return limit, after, true
}

// validID reports whether raw is a well-formed row id. Malformed ids can never match a row.
func validID(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}

// providerIDOf returns the provider profile id of a caller admitted by RequireProvider.
func providerIDOf(ctx *gin.Context) (string, bool) {
	switch c := middlewares.CallerFrom(ctx).(type) {
	case auth.Provider:
		return c.ProviderID, c.HasProfile()
	default:
		return "", false
	}
}
