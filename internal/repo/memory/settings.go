package memory

import (
	"context"
	"time"

	"github.com/geocoder89/schedulehub/internal/domain/settings"
)

type SettingsRepo struct {
	s *Store
}

func (r *SettingsRepo) Get(ctx context.Context) (settings.AppSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.getLocked(), nil
}

func (r *SettingsRepo) getLocked() settings.AppSettings {
	if r.s.settings == nil {
		d := settings.Defaults()
		d.UpdatedAt = time.Now().UTC()
		r.s.settings = &d
	}
	return *r.s.settings
}

func (r *SettingsRepo) Update(ctx context.Context, req settings.UpdateRequest) (settings.AppSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := r.getLocked().Apply(req)
	next.UpdatedAt = time.Now().UTC()
	r.s.settings = &next

	return next, nil
}
