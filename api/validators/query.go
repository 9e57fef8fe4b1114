package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

var queryTimeLayouts = []string{time.RFC3339, "2006-01-02"}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// badQuery builds a validation error naming the offending parameter. extra
// holds alternating detail keys and values.
func badQuery(key, message string, extra ...any) *pkgerrors.Error {
	details := map[string]any{"field": key}
	for i := 0; i+1 < len(extra); i += 2 {
		if name, ok := extra[i].(string); ok {
			details[name] = extra[i+1]
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// ParseQueryInt returns defaultVal when key is absent and rejects values
// outside [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, badQuery(key, "query parameter must be numeric")
	case n < min || n > max:
		return 0, badQuery(key, "query parameter out of range", "min", min, "max", max)
	}
	return n, nil
}

// ParseQueryUUID returns nil when the parameter is absent.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badQuery(key, "invalid "+key)
	}
	return &id, nil
}

// ParseQueryTime accepts RFC 3339 timestamps or plain dates and returns UTC.
func ParseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, badQuery(key, "invalid "+key, "format", "RFC3339 or YYYY-MM-DD")
}

// ParsePagination reads limit and cursor. A malformed cursor is rejected here
// so services only ever see well-formed tokens.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	cursor := queryValue(r, "cursor")
	if _, err := pagination.ParseCursor(cursor); err != nil {
		return pagination.Params{}, badQuery("cursor", "invalid cursor")
	}
	return pagination.Params{Limit: limit, Cursor: cursor}, nil
}

// QueryString returns the sanitized parameter capped to maxLen bytes.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
