// Package grouper clusters parsed log events into frequency-ranked patterns.
//
// Events are keyed by their normalized message (see Normalizer). Each group
// keeps its count, dominant level and time window up to date as events are
// added, so no step ever rescans a group's events.
package grouper

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bimmerbailey/logreason/internal/config"
)

// patternNamespace seeds the name-based IDs of groups, so a pattern gets the
// same ID on every run.
var patternNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/bimmerbailey/logreason/pattern"))

// PatternID returns the stable identifier of a pattern key.
func PatternID(pattern string) uuid.UUID {
	return uuid.NewSHA1(patternNamespace, []byte(pattern))
}

// TimeWindow is the inclusive range of timestamps seen in a group.
type TimeWindow struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// LogGroup aggregates every event that normalizes to Pattern.
type LogGroup struct {
	ID      uuid.UUID
	Pattern string

	// Events are kept in insertion order.
	Events []config.LogEvent
	Count  int

	// DominantLevel is the level with the highest count. On a tie the level
	// that reached the count first keeps it. LevelUnknown until an event
	// with a level is added.
	DominantLevel config.LogLevel

	// TimeWindow is nil until an event with a timestamp is added.
	TimeWindow *TimeWindow

	levelCounts map[config.LogLevel]int
}

func newLogGroup(pattern string) *LogGroup {
	return &LogGroup{
		ID:            PatternID(pattern),
		Pattern:       pattern,
		DominantLevel: config.LevelUnknown,
		levelCounts:   make(map[config.LogLevel]int),
	}
}

// Add appends event and updates the aggregates in constant time.
func (g *LogGroup) Add(event config.LogEvent) {
	g.Events = append(g.Events, event)
	g.Count++

	if event.Level.Known() {
		// Read before incrementing: a level only takes over when it strictly
		// exceeds what the current dominant level had.
		dominant := g.levelCounts[g.DominantLevel]
		g.levelCounts[event.Level]++
		if g.levelCounts[event.Level] > dominant {
			g.DominantLevel = event.Level
		}
	}

	if event.HasTimestamp() {
		ts := event.Timestamp
		switch {
		case g.TimeWindow == nil:
			g.TimeWindow = &TimeWindow{Start: ts, End: ts}
		case ts.Before(g.TimeWindow.Start):
			g.TimeWindow.Start = ts
		case ts.After(g.TimeWindow.End):
			g.TimeWindow.End = ts
		}
	}
}

// LevelCount returns how many events in the group carried level.
func (g *LogGroup) LevelCount(level config.LogLevel) int {
	return g.levelCounts[level]
}

// Grouper assigns events to groups by pattern key.
// A Grouper is not safe for concurrent use.
type Grouper struct {
	normalizer *Normalizer
	groups     map[string]*LogGroup
	order      []*LogGroup // first-seen order of patterns
}

// New creates an empty Grouper.
func New() *Grouper {
	return &Grouper{
		normalizer: NewNormalizer(),
		groups:     make(map[string]*LogGroup),
	}
}

// Add places event in the group for its pattern, creating the group on first
// sight, and returns that group.
func (gr *Grouper) Add(event config.LogEvent) *LogGroup {
	pattern := gr.normalizer.Normalize(event.Message)

	g, ok := gr.groups[pattern]
	if !ok {
		g = newLogGroup(pattern)
		gr.groups[pattern] = g
		gr.order = append(gr.order, g)
	}
	g.Add(event)

	return g
}

// Len returns the number of distinct patterns seen so far.
func (gr *Grouper) Len() int {
	return len(gr.order)
}

// Finish returns the groups ordered by descending count, with ties in the
// order their pattern was first seen. The Grouper is reset and the caller
// owns the returned groups.
func (gr *Grouper) Finish() []*LogGroup {
	result := gr.order
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	gr.groups = make(map[string]*LogGroup)
	gr.order = nil

	return result
}

// GroupEvents groups events in input order and returns the ranked groups.
func GroupEvents(events []config.LogEvent) []*LogGroup {
	gr := New()
	for _, e := range events {
		gr.Add(e)
	}
	return gr.Finish()
}

// GroupStats is a summary over a finished group sequence.
type GroupStats struct {
	TotalEvents    int `json:"total_events" yaml:"total_events"`
	UniquePatterns int `json:"unique_patterns" yaml:"unique_patterns"`
	LargestGroup   int `json:"largest_group" yaml:"largest_group"`
}

// Stats computes GroupStats over groups.
func Stats(groups []*LogGroup) GroupStats {
	stats := GroupStats{UniquePatterns: len(groups)}
	for _, g := range groups {
		stats.TotalEvents += g.Count
		if g.Count > stats.LargestGroup {
			stats.LargestGroup = g.Count
		}
	}
	return stats
}

// FilterErrors keeps only events at LevelError, preserving order.
func FilterErrors(events []config.LogEvent) []config.LogEvent {
	result := make([]config.LogEvent, 0, len(events))
	for _, e := range events {
		if e.Level == config.LevelError {
			result = append(result, e)
		}
	}
	return result
}

// FilterMinCount drops groups with fewer than minCount events, preserving order.
func FilterMinCount(groups []*LogGroup, minCount int) []*LogGroup {
	if minCount <= 1 {
		return groups
	}
	result := make([]*LogGroup, 0, len(groups))
	for _, g := range groups {
		if g.Count >= minCount {
			result = append(result, g)
		}
	}
	return result
}
