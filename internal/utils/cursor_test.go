package utils

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	enc, err := EncodeCursor(at, "abc")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	c, err := DecodeCursor(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c == nil || c.ID != "abc" || !c.CreatedAt.Equal(at) {
		t.Fatalf("unexpected cursor: %+v", c)
	}
}

func TestDecodeCursor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantNil bool
		wantErr bool
	}{
		{name: "empty means first page", in: "", wantNil: true},
		{name: "not base64", in: "%%%", wantErr: true},
		{name: "not json", in: "bm90LWpzb24", wantErr: true},
		{name: "missing id", in: "eyJjcmVhdGVkQXQiOiIyMDI2LTAxLTAxVDAwOjAwOjAwWiJ9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := DecodeCursor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCursor) {
					t.Fatalf("expected ErrInvalidCursor, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tt.wantNil && c != nil {
				t.Fatalf("expected nil cursor, got %+v", c)
			}
		})
	}
}

func TestPage(t *testing.T) {
	type row struct {
		at time.Time
		id string
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{base.Add(3 * time.Minute), "c"}, {base.Add(2 * time.Minute), "b"}, {base.Add(time.Minute), "a"}}
	key := func(r row) (time.Time, string) { return r.at, r.id }

	out, next, err := Page(rows, 2, key)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(out) != 2 || next == nil {
		t.Fatalf("expected 2 rows and a cursor, got %d rows next=%v", len(out), next)
	}

	c, err := DecodeCursor(*next)
	if err != nil || c.ID != "b" {
		t.Fatalf("cursor should point at last returned row, got %+v err=%v", c, err)
	}

	out, next, err = Page(rows, 3, key)
	if err != nil || len(out) != 3 || next != nil {
		t.Fatalf("expected last page without cursor, got %d rows next=%v err=%v", len(out), next, err)
	}
}
