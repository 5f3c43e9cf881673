package usercycle

import (
	"errors"
	"testing"
	"time"
)

func TestCheckTimestamp(t *testing.T) {
	valid := []string{
		"2012-04-18 10:30:00 UTC",
		"1999-12-31 23:59:59 UTC",
	}
	for _, s := range valid {
		if err := checkTimestamp(s); err != nil {
			t.Errorf("checkTimestamp(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{
		"",
		"2012-4-18 10:30:00 UTC",
		"2012-04-18 10:30:00 GMT",
		"2012-04-18 10:30:00 UTC ",
		"2012-02-30 10:30:00 UTC",
	}
	for _, s := range invalid {
		if err := checkTimestamp(s); err == nil {
			t.Errorf("checkTimestamp(%q) expected error", s)
		}
	}
}

func TestNormalizeOccurredAtNilPointer(t *testing.T) {
	var ts *time.Time
	s, ok, err := normalizeOccurredAt(ts)
	if err != nil || ok || s != "" {
		t.Fatalf("normalizeOccurredAt(nil *time.Time) = %q, %v, %v", s, ok, err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	local := time.Date(2012, 4, 18, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	if got := FormatTimestamp(local); got != "2012-04-18 10:30:00 UTC" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2012-04-18 10:30:00 UTC")
	if err != nil {
		t.Fatalf("ParseTimestamp() unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2012, 4, 18, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("ParseTimestamp() = %v", got)
	}

	if _, err := ParseTimestamp("2012-04-18 1:30:00 UTC"); err == nil {
		t.Error("expected single-digit hour to be rejected")
	} else if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
