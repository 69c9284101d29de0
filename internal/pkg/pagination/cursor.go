// Package pagination implements opaque keyset cursors for append-only lists
// such as the account ledger.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultLimit is the page size when none is requested
const DefaultLimit = 50

// MaxLimit caps any requested page size
const MaxLimit = 200

// Cursor marks the last row of a page by its sequence number
type Cursor struct {
	Seq int64 `json:"s"`
}

// Encode encodes the cursor to a string
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a cursor string. An empty string yields a nil cursor.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	if cursor.Seq <= 0 {
		return nil, fmt.Errorf("invalid cursor position")
	}

	return &cursor, nil
}

// ClampLimit returns limit bounded to (0, MaxLimit]
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Trim cuts a result fetched with limit+1 rows down to limit and returns
// the cursor of the last kept row when more rows exist.
func Trim[T any](items []T, limit int, seqOf func(T) int64) ([]T, string, bool) {
	if len(items) <= limit {
		return items, "", false
	}
	items = items[:limit]
	next := &Cursor{Seq: seqOf(items[len(items)-1])}
	return items, next.Encode(), true
}
