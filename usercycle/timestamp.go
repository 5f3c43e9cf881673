package usercycle

import (
	"fmt"
	"time"
)

// TimestampLayout is the only occurred_at format the service accepts.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses s, which must be exactly in TimestampLayout. It
// rejects the looser inputs time.Parse accepts, such as single-digit hours.
func ParseTimestamp(s string) (time.Time, error) {
	if err := checkTimestamp(s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(TimestampLayout, s)
}

// normalizeOccurredAt turns a caller-supplied occurred_at into its wire form.
// ok is false when v is nil and the field should be omitted.
func normalizeOccurredAt(v any) (s string, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case time.Time:
		if t.IsZero() {
			return "", false, nil
		}
		return FormatTimestamp(t), true, nil
	case *time.Time:
		if t == nil || t.IsZero() {
			return "", false, nil
		}
		return FormatTimestamp(*t), true, nil
	case string:
		if err := checkTimestamp(t); err != nil {
			return "", false, err
		}
		return t, true, nil
	default:
		return "", false, &ValidationError{
			Field: "occurred_at",
			Msg:   fmt.Sprintf("unsupported type %T, want time.Time or string", v),
		}
	}
}

// checkTimestamp accepts s only if it is byte-for-byte a TimestampLayout value.
// The round trip rejects inputs time.Parse tolerates, like single-digit hours.
func checkTimestamp(s string) error {
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil || parsed.Format(TimestampLayout) != s {
		return &ValidationError{
			Field: "occurred_at",
			Msg:   fmt.Sprintf("%q does not match %q", s, TimestampLayout),
		}
	}
	return nil
}
