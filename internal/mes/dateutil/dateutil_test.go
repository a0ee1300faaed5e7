package dateutil

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"2025/06/15", "15-06-2025", "not-a-date", "2025-13-01"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q): expected error", s)
		}
	}
}

func TestParseDatePtrEmpty(t *testing.T) {
	p, err := ParseDatePtr("")
	if err != nil {
		t.Fatalf("ParseDatePtr: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for empty string, got %v", p)
	}
}

func TestTruncate(t *testing.T) {
	in := time.Date(2025, 6, 15, 23, 59, 59, 123, time.UTC)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := Truncate(in); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	const s = "2025-12-31"
	parsed, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got := Format(parsed); got != s {
		t.Errorf("round trip: got %q, want %q", got, s)
	}
}
