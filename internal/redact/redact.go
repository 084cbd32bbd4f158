// Package redact masks sensitive values in rendered log text.
//
// The same value always maps to the same placeholder within a Redactor, so
// a reader can still tell that two sample lines mention the same address or
// account without seeing it:
//
//	"login failed for bob@example.com" -> "login failed for [EMAIL:5ab1]"
//
// Redaction is applied to output only. Grouping always runs on the original
// messages, so enabling it never changes which events share a pattern.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/go-errors/errors"
)

// Redactor replaces sensitive values with correlation-preserving placeholders.
// It is safe for concurrent use.
type Redactor struct {
	patterns     []Pattern
	placeholders map[string]string // original value -> placeholder
	mu           sync.RWMutex
}

// New creates a Redactor for the named patterns, or DefaultPatterns when
// names is empty. Unknown names are an error.
func New(names []string) (*Redactor, error) {
	if len(names) == 0 {
		names = DefaultPatterns()
	}

	patterns := make([]Pattern, 0, len(names))
	for _, name := range names {
		p, ok := builtIn[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, errors.Errorf("unknown redaction pattern %q (available: %s)", name, strings.Join(Names(), ", "))
		}
		patterns = append(patterns, p)
	}

	return &Redactor{
		patterns:     patterns,
		placeholders: make(map[string]string),
	}, nil
}

// Redact returns text with every match of every pattern replaced.
// A nil Redactor returns text unchanged.
func (r *Redactor) Redact(text string) string {
	out, _ := r.RedactAndCount(text)
	return out
}

// RedactAndCount redacts text and returns the number of replacements made.
func (r *Redactor) RedactAndCount(text string) (string, int) {
	if r == nil {
		return text, 0
	}

	count := 0
	for _, p := range r.patterns {
		text = p.Regex.ReplaceAllStringFunc(text, func(match string) string {
			count++
			return r.placeholder(match, p.Type)
		})
	}
	return text, count
}

// Len returns the number of distinct values redacted so far.
func (r *Redactor) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.placeholders)
}

func (r *Redactor) placeholder(value, kind string) string {
	key := kind + "\x00" + value

	r.mu.RLock()
	if p, ok := r.placeholders[key]; ok {
		r.mu.RUnlock()
		return p
	}
	r.mu.RUnlock()

	h := sha256.Sum256([]byte(value))
	p := fmt.Sprintf("[%s:%s]", kind, hex.EncodeToString(h[:2]))

	r.mu.Lock()
	r.placeholders[key] = p
	r.mu.Unlock()
	return p
}
