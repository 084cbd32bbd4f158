package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeDurationPattern = regexp.MustCompile(`(\d+)([dhms])`)

// absoluteLayouts are tried in order by ParseTimeRef. Zone-less layouts are
// read as UTC, matching how the parser treats zone-less log timestamps.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimeRef parses an absolute timestamp or a relative duration for the
// --since and --until filters. Relative values are subtracted from now
// (e.g. "1h", "30m", "1d2h"). The result is always in UTC.
func ParseTimeRef(s string) (time.Time, error) {
	return parseTimeRefAt(s, time.Now())
}

func parseTimeRefAt(s string, now time.Time) (time.Time, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return time.Time{}, fmt.Errorf("time reference is empty")
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.UTC(), nil
		}
	}

	d, err := ParseDuration(input)
	if err != nil {
		return time.Time{}, err
	}

	return now.Add(-d).UTC(), nil
}

// ParseDuration parses a duration string supporting standard Go durations and
// a "d" unit for days. Examples: "500ms", "5m", "1h30m", "2d".
func ParseDuration(s string) (time.Duration, error) {
	input := strings.TrimSpace(s)
	if d, err := time.ParseDuration(input); err == nil {
		return d, nil
	}

	matches := relativeDurationPattern.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	consumed := 0
	var total time.Duration
	for _, m := range matches {
		consumed += m[1] - m[0]

		value, err := strconv.ParseInt(input[m[2]:m[3]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}

		switch input[m[4]:m[5]] {
		case "d":
			total += 24 * time.Hour * time.Duration(value)
		case "h":
			total += time.Hour * time.Duration(value)
		case "m":
			total += time.Minute * time.Duration(value)
		case "s":
			total += time.Second * time.Duration(value)
		}
	}

	if consumed != len(input) {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	return total, nil
}
