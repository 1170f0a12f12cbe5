// Package textmatch implements the case-insensitive substring matching shared
// by rules search, the glossary and the version history.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matcher tests strings for a case-insensitive occurrence of a query. A
// Matcher carries case-folding state and must not be shared between
// goroutines; build one per search.
type Matcher struct {
	caser  cases.Caser
	needle string
}

// New folds the query once. The query is used as given, surrounding
// whitespace included.
func New(query string) *Matcher {
	caser := cases.Fold()
	return &Matcher{
		caser:  caser,
		needle: caser.String(query),
	}
}

// Trimmed is New with surrounding whitespace removed from the query.
func Trimmed(query string) *Matcher {
	return New(strings.TrimSpace(query))
}

// Empty reports whether the query is empty.
func (m *Matcher) Empty() bool {
	return m.needle == ""
}

// Len returns the folded query length in runes.
func (m *Matcher) Len() int {
	return len([]rune(m.needle))
}

// In reports whether s contains the query. A blank query matches nothing.
func (m *Matcher) In(s string) bool {
	if m.needle == "" {
		return false
	}
	return strings.Contains(m.caser.String(s), m.needle)
}

// Any reports whether any of the strings contains the query.
func (m *Matcher) Any(values ...string) bool {
	for _, v := range values {
		if m.In(v) {
			return true
		}
	}
	return false
}
