package grouper

import (
	"regexp"
	"strings"
)

// Placeholder replaces every variable token in a pattern.
const Placeholder = "<VAR>"

// Normalizer masks the variable parts of a message so that lines differing
// only in IDs, addresses or counters share a key.
type Normalizer struct {
	variable *regexp.Regexp
}

// NewNormalizer compiles a Normalizer.
//
// Alternatives are ordered so that a UUID or an IPv4 address starting at a
// position wins over the plain number that is a prefix of it.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		variable: regexp.MustCompile(
			`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}` +
				`|\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b` +
				`|\d+(?:\.\d+)?`,
		),
	}
}

// Normalize returns the pattern key for message. Matches are replaced left
// to right without overlap in a single pass, then whitespace is collapsed.
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(message string) string {
	masked := n.variable.ReplaceAllLiteralString(message, Placeholder)
	return strings.Join(strings.Fields(masked), " ")
}
