package rotation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateKeyLayout = "2006-01-02"

var (
	// ErrStoreNotInitialized is returned when the service was built without its repositories
	ErrStoreNotInitialized = errors.New("keyword store is not initialized")
	// ErrInvalidDate is returned when a date string cannot be parsed
	ErrInvalidDate = errors.New("invalid date")
)

// DateKey formats the calendar day of t in t's own location as YYYY-MM-DD.
// Convert t with In before calling to key it in another zone.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDate reads a date-only string, a local date-time or an RFC 3339 timestamp.
// Date-only and zone-less values are interpreted in loc; values with an offset are
// converted to loc so DateKey yields the calendar day there.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}

	for _, layout := range []string{dateKeyLayout, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
