// Package pagination implements keyset paging over snowflake ids.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

// Pagination is bound from the page_token and page_size query parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps PageSize into [1, MaxPageSize], defaulting to DefaultPageSize.
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// After returns the id the next page starts after, or 0 for the first page.
func (p Pagination) After() (int64, error) {
	if p.PageToken == "" {
		return 0, nil
	}
	return ParseToken(p.PageToken)
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

type cursor struct {
	AfterID int64 `json:"after_id,string"`
}

// Token encodes the last id of a page into an opaque token.
func Token(afterID int64) string {
	b, _ := json.Marshal(cursor{AfterID: afterID})
	return base64.RawURLEncoding.EncodeToString(b)
}

// ParseToken is the inverse of Token.
func ParseToken(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidPageToken
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.AfterID <= 0 {
		return 0, ErrInvalidPageToken
	}
	return c.AfterID, nil
}

// Split takes rows fetched with limit+1 and returns at most limit of them,
// with a token for the next page when the extra row was present.
func Split[T any](rows []*T, limit int, idOf func(*T) int64) ([]*T, PageInfo) {
	if limit <= 0 || len(rows) <= limit {
		return rows, PageInfo{}
	}
	rows = rows[:limit]
	return rows, PageInfo{
		HasMore:       true,
		NextPageToken: Token(idOf(rows[limit-1])),
	}
}
