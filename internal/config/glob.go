package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StdinPath is the argument that selects standard input instead of a file.
const StdinPath = "-"

// ExpandGlobs expands file paths and glob patterns into a sorted unique list
// of log files. Directories are rejected since the parser reads one file at
// a time. StdinPath is passed through and always sorts first.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no file patterns provided")
	}

	files := make([]string, 0, len(patterns))
	seen := make(map[string]struct{})
	stdin := false

	add := func(path string) error {
		if _, ok := seen[path]; ok {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		seen[path] = struct{}{}
		files = append(files, path)
		return nil
	}

	for _, pattern := range patterns {
		if pattern == StdinPath {
			stdin = true
			continue
		}

		if !hasGlobMeta(pattern) {
			if err := add(pattern); err != nil {
				return nil, err
			}
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no matches for pattern %q", pattern)
		}
		for _, match := range matches {
			if err := add(match); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(files)
	if stdin {
		files = append([]string{StdinPath}, files...)
	}
	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
