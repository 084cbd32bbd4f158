// Package analyzer runs the grouping pipeline over parsed events: event
// filters, pattern grouping, group filters and summary statistics.
package analyzer

import (
	"log/slog"
	"time"

	"github.com/bimmerbailey/logreason/internal/config"
	"github.com/bimmerbailey/logreason/internal/grouper"
)

// Options selects which events and groups survive the pipeline.
type Options struct {
	// ErrorsOnly drops every event whose level is not LevelError before grouping.
	ErrorsOnly bool

	// MinCount drops groups with fewer events after grouping. Values <= 1 keep all.
	MinCount int

	// Since and Until bound event timestamps. Events without a timestamp
	// are kept. Zero values disable the bound.
	Since time.Time
	Until time.Time
}

// Result contains the full analysis output.
type Result struct {
	Files  []string
	Groups []*grouper.LogGroup
	Stats  grouper.GroupStats

	// Parsed is the number of events read before any filter.
	Parsed int
}

// Analyzer performs analysis on parsed log events.
type Analyzer struct {
	logger *slog.Logger
}

// New creates a new Analyzer. A nil logger discards output.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{logger: logger}
}

// Run groups events according to opts. Events must be in input order, since
// that order decides tie-breaks in ranking and dominant level.
func (a *Analyzer) Run(events []config.LogEvent, opts Options) Result {
	result := Result{Parsed: len(events)}

	events = Filter(events, opts)
	a.logger.Debug("filtered events", "parsed", result.Parsed, "kept", len(events), "errors_only", opts.ErrorsOnly)

	groups := grouper.GroupEvents(events)
	before := len(groups)
	groups = grouper.FilterMinCount(groups, opts.MinCount)
	a.logger.Debug("grouped events", "patterns", before, "kept", len(groups), "min_count", opts.MinCount)

	result.Groups = groups
	result.Stats = grouper.Stats(groups)
	return result
}

// Filter applies the event-level filters of opts, preserving order.
func Filter(events []config.LogEvent, opts Options) []config.LogEvent {
	if opts.ErrorsOnly {
		events = grouper.FilterErrors(events)
	}
	if opts.Since.IsZero() && opts.Until.IsZero() {
		return events
	}

	result := make([]config.LogEvent, 0, len(events))
	for _, e := range events {
		if e.HasTimestamp() {
			if !opts.Since.IsZero() && e.Timestamp.Before(opts.Since) {
				continue
			}
			if !opts.Until.IsZero() && e.Timestamp.After(opts.Until) {
				continue
			}
		}
		result = append(result, e)
	}
	return result
}

// LevelTally is the number of events seen at one level.
type LevelTally struct {
	Level config.LogLevel `json:"level" yaml:"level"`
	Count int             `json:"count" yaml:"count"`
}

// CountLevels returns per-level event counts from most to least severe,
// followed by events without a level. Levels with no events are omitted.
func CountLevels(events []config.LogEvent) []LevelTally {
	var counts [config.LevelUnknown + 1]int
	for _, e := range events {
		if e.Level.Known() {
			counts[e.Level]++
		} else {
			counts[config.LevelUnknown]++
		}
	}

	var result []LevelTally
	for l := config.LevelError; l >= config.LevelTrace; l-- {
		if counts[l] > 0 {
			result = append(result, LevelTally{Level: l, Count: counts[l]})
		}
	}
	if counts[config.LevelUnknown] > 0 {
		result = append(result, LevelTally{Level: config.LevelUnknown, Count: counts[config.LevelUnknown]})
	}
	return result
}
