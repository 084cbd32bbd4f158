// Package parser turns raw log lines into structured events.
//
// Each line is scanned for a timestamp (Common Log Format, RFC3339 or a
// zone-less "YYYY-MM-DD HH:MM:SS" form), a severity token, and the message
// that remains once both are removed. Missing fields are never an error;
// only failing to read the input is.
package parser

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-errors/errors"

	"github.com/bimmerbailey/logreason/internal/config"
)

// maxLineSize bounds a single line. Longer lines fail the read.
const maxLineSize = 4 * 1024 * 1024

// ErrIO marks failures to open or read the input. Use errors.Is to test for it.
var ErrIO = errors.New("log input could not be read")

// clfTimestampLayout is the bracketed Apache/Nginx access log timestamp.
const clfTimestampLayout = "02/Jan/2006:15:04:05 -0700"

// isoLayouts are tried in order against a generic timestamp match. Layouts
// without a zone parse as UTC.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Parser extracts timestamp, level and message from log lines.
// A Parser holds only compiled patterns and may be reused across files.
type Parser struct {
	clf       *regexp.Regexp
	timestamp *regexp.Regexp
	level     *regexp.Regexp
}

// New creates a Parser with freshly compiled patterns.
func New() *Parser {
	return &Parser{
		// 127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /a.gif HTTP/1.0" 200 2326
		clf: regexp.MustCompile(`^(\S+) \S+ \S+ (\[([\w:/]+\s[+\-]\d{4})\]) ".*?" (\d{3}) (\d+|-)`),

		// 2024-01-05T12:01:03Z, 2024-01-05T12:01:03.123+02:00, 2024-01-05 12:01:03
		timestamp: regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`),

		level: regexp.MustCompile(`(?i)\b(ERROR|ERR|WARN|WARNING|INFO|DEBUG|TRACE)\b`),
	}
}

// ParseFile opens a file and parses every non-blank line in order.
// config.StdinPath reads standard input instead.
func (p *Parser) ParseFile(path string) ([]config.LogEvent, error) {
	if path == config.StdinPath {
		return p.Parse(os.Stdin, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	return p.Parse(f, path)
}

// Parse reads events from r. source is recorded on each event. On any read
// failure no events are returned.
func (p *Parser) Parse(r io.Reader, source string) ([]config.LogEvent, error) {
	var events []config.LogEvent

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return nil, errors.Errorf("%w: %s:%d: line is not valid UTF-8", ErrIO, source, lineNum)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		event := p.ParseLine(line)
		event.Source = source
		event.Line = lineNum
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("%w: read %s after line %d: %w", ErrIO, source, lineNum, err)
	}

	return events, nil
}

// ParseLine extracts structured fields from a single line. It never fails:
// fields that cannot be recognized are left absent.
func (p *Parser) ParseLine(line string) config.LogEvent {
	clf := p.clf.FindStringSubmatchIndex(line)

	ts, tsSpan := p.extractTimestamp(line, clf)
	level, levelSpan := p.extractLevel(line, clf)

	return config.LogEvent{
		Raw:       line,
		Timestamp: ts,
		Level:     level,
		Message:   extractMessage(line, tsSpan, levelSpan),
	}
}

// span is a half-open byte range into the original line. A nil span means
// nothing was matched.
type span []int

// extractTimestamp returns the first timestamp that parses, in priority
// order: CLF bracket, then the generic ISO/space form.
func (p *Parser) extractTimestamp(line string, clf []int) (time.Time, span) {
	if clf != nil {
		// Group 3 is the bracket contents; group 2 includes the brackets.
		if t, err := time.Parse(clfTimestampLayout, line[clf[6]:clf[7]]); err == nil {
			return t.UTC(), span{clf[4], clf[5]}
		}
	}

	loc := p.timestamp.FindStringIndex(line)
	if loc == nil {
		return time.Time{}, nil
	}

	candidate := line[loc[0]:loc[1]]
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.UTC(), span(loc)
		}
	}

	return time.Time{}, nil
}

// extractLevel prefers an explicit level token and falls back to the HTTP
// status of a CLF line. Only a token yields a span to strip.
func (p *Parser) extractLevel(line string, clf []int) (config.LogLevel, span) {
	if loc := p.level.FindStringIndex(line); loc != nil {
		if level := config.ParseLevel(line[loc[0]:loc[1]]); level != config.LevelUnknown {
			return level, span(loc)
		}
	}

	if clf != nil {
		status, err := strconv.Atoi(line[clf[8]:clf[9]])
		if err == nil {
			return levelForStatus(status), nil
		}
	}

	return config.LevelUnknown, nil
}

// levelForStatus maps an HTTP status code to a severity.
func levelForStatus(status int) config.LogLevel {
	switch {
	case status >= 500 && status <= 599:
		return config.LevelError
	case status >= 400 && status <= 499:
		return config.LevelWarn
	default:
		return config.LevelInfo
	}
}

// extractMessage deletes the given spans from the original line and
// collapses whitespace. Both spans index the original line, so they are
// removed together rather than one after the other.
func extractMessage(line string, spans ...span) string {
	cut := make([]span, 0, len(spans))
	for _, s := range spans {
		if s != nil {
			cut = append(cut, s)
		}
	}
	if len(cut) == 0 {
		return collapseWhitespace(line)
	}

	sort.Slice(cut, func(i, j int) bool { return cut[i][0] < cut[j][0] })

	var b strings.Builder
	b.Grow(len(line))
	pos := 0
	for _, s := range cut {
		if s[0] > pos {
			b.WriteString(line[pos:s[0]])
		}
		b.WriteByte(' ')
		if s[1] > pos {
			pos = s[1]
		}
	}
	b.WriteString(line[pos:])

	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
