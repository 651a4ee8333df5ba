package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a keyset position over rows ordered by (created_at DESC, id DESC).
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func EncodeCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(Cursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses an opaque cursor. An empty string means "first page" and returns nil.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// Page trims a limit+1 result set down to limit and builds the cursor for the next page.
func Page[T any](items []T, limit int, key func(T) (time.Time, string)) ([]T, *string, error) {
	if len(items) <= limit {
		return items, nil, nil
	}

	items = items[:limit]
	createdAt, id := key(items[len(items)-1])

	next, err := EncodeCursor(createdAt, id)
	if err != nil {
		return nil, nil, err
	}
	return items, &next, nil
}
