package analyzer

import (
	"testing"
	"time"

	"github.com/bimmerbailey/logreason/internal/config"
)

func ev(level config.LogLevel, sec int, msg string) config.LogEvent {
	e := config.LogEvent{Level: level, Message: msg, Raw: msg}
	if sec >= 0 {
		e.Timestamp = time.Date(2024, 1, 5, 12, 0, sec, 0, time.UTC)
	}
	return e
}

func sample() []config.LogEvent {
	return []config.LogEvent{
		ev(config.LevelError, 0, "conn to 10.0.0.1 failed"),
		ev(config.LevelInfo, 1, "heartbeat"),
		ev(config.LevelError, 2, "conn to 10.0.0.2 failed"),
		ev(config.LevelWarn, 3, "slow query 120ms"),
		ev(config.LevelError, -1, "conn to 10.0.0.3 failed"),
		ev(config.LevelInfo, 5, "heartbeat"),
		ev(config.LevelError, 6, "disk full"),
	}
}

func TestRun(t *testing.T) {
	result := New(nil).Run(sample(), Options{})

	if result.Parsed != 7 {
		t.Errorf("Parsed = %d, want 7", result.Parsed)
	}
	if result.Stats.TotalEvents != 7 {
		t.Errorf("TotalEvents = %d, want 7", result.Stats.TotalEvents)
	}
	if result.Stats.UniquePatterns != 4 {
		t.Errorf("UniquePatterns = %d, want 4", result.Stats.UniquePatterns)
	}
	if got := result.Groups[0].Pattern; got != "conn to <VAR> failed" {
		t.Errorf("top pattern = %q", got)
	}
	if result.Groups[0].Count != 3 {
		t.Errorf("top count = %d, want 3", result.Groups[0].Count)
	}
}

func TestRunErrorsOnly(t *testing.T) {
	result := New(nil).Run(sample(), Options{ErrorsOnly: true})

	if result.Stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", result.Stats.TotalEvents)
	}
	for _, g := range result.Groups {
		if g.DominantLevel != config.LevelError {
			t.Errorf("group %q has level %v", g.Pattern, g.DominantLevel)
		}
	}
}

func TestRunMinCount(t *testing.T) {
	result := New(nil).Run(sample(), Options{MinCount: 2})

	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	if result.Stats.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", result.Stats.TotalEvents)
	}
	if result.Stats.LargestGroup != 3 {
		t.Errorf("LargestGroup = %d, want 3", result.Stats.LargestGroup)
	}
}

func TestRunEmpty(t *testing.T) {
	result := New(nil).Run(nil, Options{ErrorsOnly: true, MinCount: 3})

	if len(result.Groups) != 0 {
		t.Errorf("expected no groups, got %d", len(result.Groups))
	}
	if result.Stats.TotalEvents != 0 || result.Stats.UniquePatterns != 0 || result.Stats.LargestGroup != 0 {
		t.Errorf("expected zero stats, got %+v", result.Stats)
	}
}

func TestFilterTimeRange(t *testing.T) {
	opts := Options{
		Since: time.Date(2024, 1, 5, 12, 0, 2, 0, time.UTC),
		Until: time.Date(2024, 1, 5, 12, 0, 5, 0, time.UTC),
	}

	got := Filter(sample(), opts)

	// Seconds 2, 3 and 5 fall inside; the event without a timestamp is kept.
	want := []string{"conn to 10.0.0.2 failed", "slow query 120ms", "conn to 10.0.0.3 failed", "heartbeat"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.Message != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestFilterNoOptions(t *testing.T) {
	events := sample()
	if got := Filter(events, Options{}); len(got) != len(events) {
		t.Errorf("expected all %d events, got %d", len(events), len(got))
	}
}

func TestCountLevels(t *testing.T) {
	events := append(sample(), config.LogEvent{Message: "no level", Level: config.LevelUnknown})

	got := CountLevels(events)
	want := []LevelTally{
		{config.LevelError, 4},
		{config.LevelWarn, 1},
		{config.LevelInfo, 2},
		{config.LevelUnknown, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("CountLevels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if got := CountLevels(nil); len(got) != 0 {
		t.Errorf("CountLevels(nil) = %v, want empty", got)
	}
}
