package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// queryReader parses query string values and collects every bad field into
// one validation error.
type queryReader struct {
	c    *gin.Context
	errs []ValidationError
}

func readQuery(c *gin.Context) *queryReader {
	return &queryReader{c: c}
}

func (q *queryReader) raw(key string) string {
	return strings.TrimSpace(q.c.Query(key))
}

func (q *queryReader) fail(key, reason string) {
	q.errs = append(q.errs, ValidationError{
		Field:   key,
		Code:    "invalid_" + key,
		Message: key + " " + reason,
	})
}

// ID reads a snowflake id. A missing optional id is 0.
func (q *queryReader) ID(key string, required bool) snowflake.ID {
	v := q.raw(key)
	if v == "" {
		if required {
			q.fail(key, "is required")
		}
		return 0
	}
	id, err := snowflake.ParseString(v)
	if err != nil || id <= 0 {
		q.fail(key, "must be a positive id")
		return 0
	}
	return id
}

// Bool reads an optional flag; nil means the caller did not filter.
func (q *queryReader) Bool(key string) *bool {
	v := q.raw(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(key, "must be true or false")
		return nil
	}
	return &b
}

// Date accepts RFC 3339 or YYYY-MM-DD. Bare dates read as the start of the
// day, or its last instant when endOfDay is set.
func (q *queryReader) Date(key string, endOfDay bool) *time.Time {
	v := q.raw(key)
	if v == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		ts = ts.UTC()
		return &ts
	}
	day, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		q.fail(key, "must be a date")
		return nil
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day
}

// OK aborts the request with the collected errors, if any.
func (q *queryReader) OK() bool {
	if len(q.errs) == 0 {
		return true
	}
	AbortWithError(q.c, &ValidationErrors{Errors: q.errs})
	return false
}
