package units

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimestampParse is returned for timestamps that are not ISO-8601.
var ErrTimestampParse = errors.New("invalid timestamp")

// timestampLayouts are tried in order. The first one covers everything slog
// emits; the rest accept hand-edited logs without a zone or with a space
// separator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" and an
// explicit "+00:00" offset denote the same instant. Timestamps without a zone
// are taken as UTC. The result is always returned in UTC.
func ParseTimestamp(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrTimestampParse)
	}

	// "z" is valid ISO-8601 but not accepted by the RFC 3339 layout.
	if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampParse, text)
}
