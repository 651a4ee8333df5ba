package memory

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/session"
)

type SessionsRepo struct {
	s *Store
}

func (r *SessionsRepo) Issue(ctx context.Context, row session.RefreshToken) error {
	r.s.mu.Lock()
	r.s.sessions[row.ID] = row
	r.s.mu.Unlock()
	return nil
}

func (r *SessionsRepo) Rotate(ctx context.Context, id, presentedHash string, next session.RefreshToken) (session.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()

	old, ok := r.s.sessions[id]
	if !ok {
		return session.RefreshToken{}, session.ErrNotFound
	}

	if err := old.Check(presentedHash, now); err != nil {
		if errors.Is(err, session.ErrRevoked) {
			for sid, row := range r.s.sessions {
				if row.UserID == old.UserID && row.RevokedAt == nil {
					row.RevokedAt = &now
					r.s.sessions[sid] = row
				}
			}
		}
		return old, err
	}

	nextID := next.ID
	old.RevokedAt = &now
	old.ReplacedBy = &nextID
	r.s.sessions[id] = old

	next.UserID = old.UserID
	r.s.sessions[next.ID] = next

	return old, nil
}

func (r *SessionsRepo) RevokeByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.sessions[id]
	if !ok || row.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	row.RevokedAt = &now
	r.s.sessions[id] = row
	return nil
}
