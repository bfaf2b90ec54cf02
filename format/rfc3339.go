package format

import (
	"fmt"
	"time"
)

// TimeRFC3339 converts between RFC3339 strings on the wire and time.Time.
var TimeRFC3339 Formatter = rfc3339{}

type rfc3339 struct{}

func (rfc3339) Deserialize(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseRFC3339(t)
	default:
		return nil, fmt.Errorf("format: cannot deserialize %T as RFC3339 time", v)
	}
}

func (rfc3339) Serialize(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return formatRFC3339Canonical(t), nil
	case string:
		// Re-serialize through a parse so malformed input does not pass.
		parsed, err := parseRFC3339(t)
		if err != nil {
			return nil, err
		}
		return formatRFC3339Canonical(parsed), nil
	default:
		return nil, fmt.Errorf("format: cannot serialize %T as RFC3339 time", v)
	}
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
