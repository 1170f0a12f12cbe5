package search

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/textmatch"
)

// MinQueryLength is the shortest query the flat index accepts.
const MinQueryLength = 2

// ErrQueryTooShort is returned by FlatIndex.Search for short queries.
var ErrQueryTooShort = errors.New("search query must be at least 2 characters")

// Entry is one (rule id, text) pair of the flat index.
type Entry struct {
	ID   rules.RuleID `json:"id"`
	Text string       `json:"text"`
}

// FlatIndex is a precomputed list of every subrule of an edition, used for
// quick id-or-text lookups without walking the document.
type FlatIndex struct {
	entries []Entry
}

// NewFlatIndex flattens the version's subrules in document order.
func NewFlatIndex(version *rules.Version) *FlatIndex {
	ix := &FlatIndex{}
	if version == nil {
		return ix
	}
	for _, section := range version.Sections {
		for _, sub := range section.Subsections {
			for _, rule := range sub.Subrules {
				ix.entries = append(ix.entries, Entry{ID: rule.ID, Text: rule.Text})
			}
		}
	}
	return ix
}

// NewFlatIndexFromEntries builds an index over explicit entries.
func NewFlatIndexFromEntries(entries []Entry) *FlatIndex {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &FlatIndex{entries: copied}
}

// Len returns the number of entries.
func (ix *FlatIndex) Len() int {
	return len(ix.entries)
}

// Entries returns every entry in index order.
func (ix *FlatIndex) Entries() []Entry {
	return ix.entries
}

// Search returns the entries whose id or text contains the trimmed query,
// case-insensitively, in index order.
func (ix *FlatIndex) Search(query string) ([]Entry, error) {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	match := textmatch.New(trimmed)

	var hits []Entry
	for _, entry := range ix.entries {
		if match.Any(string(entry.ID), entry.Text) {
			hits = append(hits, entry)
		}
	}
	return hits, nil
}

// Span is a run of text, flagged when it matched the query.
type Span struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Highlight splits text into spans around case-insensitive occurrences of
// query, for rendering excerpts. The query is matched literally.
func Highlight(text, query string) []Span {
	if query == "" {
		if text == "" {
			return nil
		}
		return []Span{{Text: text}}
	}
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(query))

	var spans []Span
	last := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: text[last:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}
