package session_test

import (
	"testing"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/session"
	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenCheck(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Hour)

	live := session.RefreshToken{ID: "j1", TokenHash: "h", ExpiresAt: now.Add(time.Hour)}

	assert.NoError(t, live.Check("h", now))
	assert.ErrorIs(t, live.Check("other", now), session.ErrMismatch)
	assert.ErrorIs(t, live.Check("h", now.Add(2*time.Hour)), session.ErrExpired)

	revoked := live
	revoked.RevokedAt = &revokedAt
	assert.ErrorIs(t, revoked.Check("h", now), session.ErrRevoked)
}
