// Package history tracks how individual rules changed between editions of
// the comprehensive rules.
package history

import (
	"github.com/coolbeans/mtgrules/pkg/textmatch"
)

// AllVersions selects every entry when filtering.
const AllVersions = "all"

// Change records the wording of one rule before and after an edition.
type Change struct {
	Rule string `yaml:"rule" json:"rule"`
	Old  string `yaml:"old" json:"old"`
	New  string `yaml:"new" json:"new"`
}

// Entry lists the changes published with one edition.
type Entry struct {
	Version string   `yaml:"version" json:"version"`
	Date    string   `yaml:"date" json:"date"`
	Changes []Change `yaml:"changes" json:"changes"`
}

// RuleChange is a change to a single rule together with the edition that
// introduced it.
type RuleChange struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Change
}

// History is an ordered, newest-first list of editions.
type History struct {
	entries []Entry
}

// New builds a History from entries in publication order (newest first).
func New(entries []Entry) *History {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &History{entries: copied}
}

// Len returns the number of editions.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Entries returns every edition.
func (h *History) Entries() []Entry {
	if h == nil {
		return nil
	}
	return h.entries
}

// Versions returns the edition names in order, for a version filter.
func (h *History) Versions() []string {
	if h == nil {
		return nil
	}
	versions := make([]string, 0, len(h.entries))
	for _, entry := range h.entries {
		versions = append(versions, entry.Version)
	}
	return versions
}

// Filter keeps the entries for one edition ("" or AllVersions keeps all) and,
// when query is non-blank, only those whose edition name or any change
// mentions the query, case-insensitively.
func (h *History) Filter(version, query string) []Entry {
	if h == nil {
		return nil
	}
	match := textmatch.Trimmed(query)

	var filtered []Entry
	for _, entry := range h.entries {
		if version != "" && version != AllVersions && entry.Version != version {
			continue
		}
		if !match.Empty() && !entry.mentions(match) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func (e Entry) mentions(match *textmatch.Matcher) bool {
	if match.In(e.Version) {
		return true
	}
	for _, change := range e.Changes {
		if match.Any(change.Rule, change.Old, change.New) {
			return true
		}
	}
	return false
}

// ForRule returns every recorded change to the given rule, newest first.
func (h *History) ForRule(rule string) []RuleChange {
	if h == nil {
		return nil
	}
	var changes []RuleChange
	for _, entry := range h.entries {
		for _, change := range entry.Changes {
			if change.Rule == rule {
				changes = append(changes, RuleChange{
					Version: entry.Version,
					Date:    entry.Date,
					Change:  change,
				})
			}
		}
	}
	return changes
}
