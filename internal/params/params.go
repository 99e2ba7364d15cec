package params

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	hashids "github.com/speps/go-hashids/v2"
)

// URL: /reviews?limit=20&cursor=eyJ0IjoiMjAy...
// → ParsePage() → Page{Limit:20, Cursor:"eyJ0..."}
// → store fetches Limit+1 rows ordered by the sort mode
// → NextTimeCursor pops the extra row and encodes the boundary
// → JSON response carries items + next_cursor (absent when exhausted)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Page holds the raw pagination inputs of a list request.
type Page struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// ParsePage parses ?limit=...&cursor=... safely, clamping limit to 1..100.
func ParsePage(q url.Values) Page {
	p := Page{Limit: DefaultLimit}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	p.Cursor = strings.TrimSpace(q.Get("cursor"))
	return p
}

// TimeCursor marks a strict position boundary in a (created_at, id)
// descending ordering. Pages resume strictly after the boundary, so
// concurrent inserts ahead of it never duplicate or shift rows.
type TimeCursor struct {
	CreatedAt time.Time `json:"t"`
	ID        int64     `json:"id"`
}

// EncodeTimeCursor renders the boundary as an opaque base64url token.
func EncodeTimeCursor(c TimeCursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		// cannot happen for this struct, but never hand out a broken token
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeTimeCursor parses a token produced by EncodeTimeCursor.
func DecodeTimeCursor(encoded string) (*TimeCursor, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c TimeCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

// offsetCodec obfuscates offset cursors so clients treat them as opaque.
// The salt is not a secret, it only keeps the token from looking numeric.
var offsetCodec = func() *hashids.HashID {
	hd := hashids.NewData()
	hd.Salt = "fanfare.cursor"
	hd.MinLength = 8
	h, err := hashids.NewWithData(hd)
	if err != nil {
		panic(err)
	}
	return h
}()

// EncodeOffsetCursor encodes a numeric offset. Offset cursors page listings
// where exactness under concurrent mutation is not required (events, admin
// views, popular sort) and are non-stable under insert/delete.
func EncodeOffsetCursor(offset int) string {
	token, err := offsetCodec.Encode([]int{offset})
	if err != nil {
		return ""
	}
	return token
}

// DecodeOffsetCursor parses a token produced by EncodeOffsetCursor.
func DecodeOffsetCursor(encoded string) (int, error) {
	nums, err := offsetCodec.DecodeWithError(encoded)
	if err != nil || len(nums) != 1 || nums[0] < 0 {
		return 0, ErrInvalidCursor
	}
	return nums[0], nil
}
