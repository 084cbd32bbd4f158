// Package output provides formatted output rendering for analysis results.
// It supports text, JSON, YAML, and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bimmerbailey/logreason/internal/analyzer"
	"github.com/bimmerbailey/logreason/internal/embedding"
	"github.com/bimmerbailey/logreason/internal/grouper"
	"github.com/bimmerbailey/logreason/internal/redact"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

const timeLayout = "2006-01-02 15:04:05"

// Writer handles writing formatted output.
type Writer struct {
	w        io.Writer
	format   Format
	color    ColorMode
	redactor *redact.Redactor
}

// New creates a new output Writer. Colors are auto-detected; see SetColorMode.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// SetColorMode controls colored level names in text output.
func (wr *Writer) SetColorMode(mode ColorMode) {
	wr.color = mode
}

// SetRedactor masks sensitive values in rendered patterns and sample lines.
// A nil Redactor disables masking.
func (wr *Writer) SetRedactor(r *redact.Redactor) {
	wr.redactor = r
}

// Report is the document rendered by the structured formats.
type Report struct {
	Files    []string           `json:"files,omitempty" yaml:"files,omitempty"`
	Patterns []PatternReport    `json:"patterns" yaml:"patterns"`
	Stats    grouper.GroupStats `json:"stats" yaml:"stats"`
}

// PatternReport describes one ranked group.
type PatternReport struct {
	Rank       int            `json:"rank" yaml:"rank"`
	ID         string         `json:"id" yaml:"id"`
	Pattern    string         `json:"pattern" yaml:"pattern"`
	Count      int            `json:"count" yaml:"count"`
	Level      string         `json:"level,omitempty" yaml:"level,omitempty"`
	Window     *WindowReport  `json:"time_window,omitempty" yaml:"time_window,omitempty"`
	SimilarTo  *SimilarReport `json:"similar_to,omitempty" yaml:"similar_to,omitempty"`
	SampleLine string         `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// WindowReport is a group's time window.
type WindowReport struct {
	FirstSeen   time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen    time.Time `json:"last_seen" yaml:"last_seen"`
	SpanSeconds int64     `json:"span_seconds" yaml:"span_seconds"`
}

// SimilarReport names the most similar other pattern by embedding.
type SimilarReport struct {
	Pattern    string  `json:"pattern" yaml:"pattern"`
	Similarity float32 `json:"similarity" yaml:"similarity"`
}

// BuildReport converts the first topN groups of result into a Report.
// topN <= 0 keeps every group. neighbors, when non-nil, is indexed like
// result.Groups. The groups themselves are not modified.
func BuildReport(result analyzer.Result, topN int, neighbors []embedding.Neighbor) Report {
	groups := result.Groups
	if topN > 0 && topN < len(groups) {
		groups = groups[:topN]
	}

	report := Report{
		Files:    result.Files,
		Patterns: make([]PatternReport, 0, len(groups)),
		Stats:    result.Stats,
	}

	for i, g := range groups {
		p := PatternReport{
			Rank:    i + 1,
			ID:      g.ID.String(),
			Pattern: g.Pattern,
			Count:   g.Count,
		}
		if g.DominantLevel.Known() {
			p.Level = g.DominantLevel.String()
		}
		if len(g.Events) > 0 {
			p.SampleLine = g.Events[0].Raw
		}
		if w := g.TimeWindow; w != nil {
			p.Window = &WindowReport{
				FirstSeen:   w.Start,
				LastSeen:    w.End,
				SpanSeconds: int64(w.Duration() / time.Second),
			}
		}
		if i < len(neighbors) {
			if n := neighbors[i]; n.Index >= 0 && n.Index < len(result.Groups) {
				p.SimilarTo = &SimilarReport{
					Pattern:    result.Groups[n.Index].Pattern,
					Similarity: n.Similarity,
				}
			}
		}
		report.Patterns = append(report.Patterns, p)
	}

	return report
}

// Redact masks sensitive values in the report's text fields in place.
func (r *Report) Redact(redactor *redact.Redactor) {
	for i := range r.Patterns {
		p := &r.Patterns[i]
		p.Pattern = redactor.Redact(p.Pattern)
		p.SampleLine = redactor.Redact(p.SampleLine)
		if p.SimilarTo != nil {
			p.SimilarTo.Pattern = redactor.Redact(p.SimilarTo.Pattern)
		}
	}
}

// WriteAnalysis outputs the top topN patterns of result in the configured
// format. neighbors may be nil.
func (wr *Writer) WriteAnalysis(result analyzer.Result, topN int, neighbors []embedding.Neighbor) error {
	report := BuildReport(result, topN, neighbors)
	if wr.redactor != nil {
		report.Redact(wr.redactor)
	}

	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(report)
	case FormatYAML:
		return wr.WriteYAML(report)
	case FormatTable:
		return wr.writeTable(report)
	default:
		return wr.writeText(report)
	}
}

// StatsReport is the document rendered by the stats command.
type StatsReport struct {
	Files  []string              `json:"files,omitempty" yaml:"files,omitempty"`
	Parsed int                   `json:"parsed_events" yaml:"parsed_events"`
	Stats  grouper.GroupStats    `json:"stats" yaml:"stats"`
	Levels []analyzer.LevelTally `json:"levels" yaml:"levels"`
}

// WriteStats outputs summary statistics in the configured format.
func (wr *Writer) WriteStats(report StatsReport) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(report)
	case FormatYAML:
		return wr.WriteYAML(report)
	}

	colorize := shouldColorize(wr.color, wr.w)
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Events:\t%d\n", report.Parsed)
	fmt.Fprintf(tw, "Grouped events:\t%d\n", report.Stats.TotalEvents)
	fmt.Fprintf(tw, "Unique patterns:\t%d\n", report.Stats.UniquePatterns)
	fmt.Fprintf(tw, "Largest cluster:\t%d\n", report.Stats.LargestGroup)
	if len(report.Levels) > 0 {
		total := 0
		for _, l := range report.Levels {
			total += l.Count
		}

		fmt.Fprintln(tw, "\nLevel\tCount\tShare")
		for _, l := range report.Levels {
			share := float64(l.Count) / float64(total) * 100
			name := l.Level.String()
			if colorize {
				name = colorizeLevel(l.Level, name)
			}
			fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", name, l.Count, share)
		}
	}
	return tw.Flush()
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

func (wr *Writer) writeText(report Report) error {
	colorize := shouldColorize(wr.color, wr.w)

	fmt.Fprintf(wr.w, "\n%s\n  LOG ANALYSIS RESULTS\n%s\n\n", rule, rule)

	if len(report.Patterns) == 0 {
		fmt.Fprintln(wr.w, "No patterns found.")
		fmt.Fprintln(wr.w)
	} else {
		fmt.Fprintf(wr.w, "Top %d patterns:\n\n", len(report.Patterns))
	}

	for _, p := range report.Patterns {
		level := p.Level
		if level == "" {
			level = "-"
		} else if colorize {
			level = colorizeLevelName(level)
		}

		fmt.Fprintf(wr.w, "┌─ Pattern #%d\n", p.Rank)
		fmt.Fprintln(wr.w, "│")
		fmt.Fprintf(wr.w, "│  Message: %s\n", p.Pattern)
		fmt.Fprintf(wr.w, "│  Occurrences: %d\n", p.Count)
		fmt.Fprintf(wr.w, "│  Level: %s\n", level)
		if w := p.Window; w != nil {
			fmt.Fprintf(wr.w, "│  Time span: %d seconds\n", w.SpanSeconds)
			fmt.Fprintf(wr.w, "│  First seen: %s\n", w.FirstSeen.Format(timeLayout))
			fmt.Fprintf(wr.w, "│  Last seen: %s\n", w.LastSeen.Format(timeLayout))
		}
		if s := p.SimilarTo; s != nil {
			fmt.Fprintf(wr.w, "│  Similar to: %s (%.2f)\n", s.Pattern, s.Similarity)
		}
		fmt.Fprintln(wr.w, "└─")
		fmt.Fprintln(wr.w)
	}

	fmt.Fprintf(wr.w, "%s\n  SUMMARY\n%s\n\n", rule, rule)
	fmt.Fprintf(wr.w, "  Total events: %d\n", report.Stats.TotalEvents)
	fmt.Fprintf(wr.w, "  Unique patterns: %d\n", report.Stats.UniquePatterns)
	_, err := fmt.Fprintf(wr.w, "  Largest cluster: %d events\n\n", report.Stats.LargestGroup)
	return err
}

func (wr *Writer) writeTable(report Report) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOUNT\tLEVEL\tFIRST SEEN\tLAST SEEN\tPATTERN")
	fmt.Fprintln(tw, "----\t-----\t-----\t----------\t---------\t-------")

	for _, p := range report.Patterns {
		first, last := "", ""
		if p.Window != nil {
			first = p.Window.FirstSeen.Format(timeLayout)
			last = p.Window.LastSeen.Format(timeLayout)
		}

		pattern := p.Pattern
		if len(pattern) > 80 {
			pattern = pattern[:77] + "..."
		}

		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", p.Rank, p.Count, p.Level, first, last, pattern)
	}

	return tw.Flush()
}
