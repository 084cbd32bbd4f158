package config

import (
	"testing"
	"time"
)

func TestParseTimeRefAbsolute(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-01-26T10:00:01Z", time.Date(2025, 1, 26, 10, 0, 1, 0, time.UTC)},
		{"2025-01-26T12:00:01+02:00", time.Date(2025, 1, 26, 10, 0, 1, 0, time.UTC)},
		{"2025-01-26 10:00:01", time.Date(2025, 1, 26, 10, 0, 1, 0, time.UTC)},
		{"2025-01-26", time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseTimeRef(tt.input)
		if err != nil {
			t.Fatalf("ParseTimeRef(%q) error = %v", tt.input, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimeRef(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseTimeRef(%q) location = %v, want UTC", tt.input, got.Location())
		}
	}
}

func TestParseTimeRefRelative(t *testing.T) {
	now := time.Date(2025, 1, 26, 12, 0, 0, 0, time.UTC)

	got, err := parseTimeRefAt("1h30m", now)
	if err != nil {
		t.Fatalf("parseTimeRefAt() error = %v", err)
	}
	if want := now.Add(-90 * time.Minute); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = parseTimeRefAt("1d2h", now)
	if err != nil {
		t.Fatalf("parseTimeRefAt() error = %v", err)
	}
	if want := now.Add(-26 * time.Hour); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTimeRefInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "banana", "1x", "1h banana"} {
		if _, err := ParseTimeRef(input); err == nil {
			t.Errorf("ParseTimeRef(%q) expected error", input)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"500ms", 500 * time.Millisecond},
		{"5m", 5 * time.Minute},
		{"2d", 48 * time.Hour},
		{"1d12h", 36 * time.Hour},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if err != nil {
			t.Fatalf("ParseDuration(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
