// Package navigate models the rules explorer's view state and the events
// that change it. Every event is a pure function: it takes a State and
// returns a new State plus an Effect for the host to perform after it has
// re-rendered. States are never modified in place.
package navigate

import (
	"sort"

	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

// SectionSet is a sorted, duplicate-free set of section ids. Values are
// treated as immutable; With and Without return new sets.
type SectionSet []rules.SectionID

// Has reports whether the set contains id.
func (s SectionSet) Has(id rules.SectionID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// With returns a set that also contains id.
func (s SectionSet) With(id rules.SectionID) SectionSet {
	if s.Has(id) {
		return s
	}
	out := make(SectionSet, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, id)
	sort.Slice(out, func(i, j int) bool {
		return rules.CompareSectionIDs(out[i], out[j]) < 0
	})
	return out
}

// Without returns a set that does not contain id.
func (s SectionSet) Without(id rules.SectionID) SectionSet {
	if !s.Has(id) {
		return s
	}
	out := make(SectionSet, 0, len(s)-1)
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// State is the per-session view state of the rules explorer.
type State struct {
	Version    rules.VersionKey   `json:"version"`
	Section    rules.SectionID    `json:"section,omitempty"`
	Subsection rules.SubsectionID `json:"subsection,omitempty"`
	Query      string             `json:"query"`
	Results    []search.Result    `json:"results"`
	Expanded   SectionSet         `json:"expanded"`
}

// NewState returns the welcome view for the default edition.
func NewState() State {
	return State{Version: rules.DefaultVersion}
}

// Searching reports whether search results replace the rule view.
func (s State) Searching() bool {
	return len(s.Results) > 0
}

// clearSearch drops the query and its results.
func (s State) clearSearch() State {
	s.Query = ""
	s.Results = nil
	return s
}

// EffectKind names a post-render action.
type EffectKind string

const (
	// EffectNone requires nothing of the host.
	EffectNone EffectKind = ""

	// EffectScrollToTop resets the content viewport to the top once the
	// new content has rendered.
	EffectScrollToTop EffectKind = "scroll-top"

	// EffectScrollToRule brings a subrule into view once the new content
	// has rendered.
	EffectScrollToRule EffectKind = "scroll-rule"
)

// Effect is an action the host performs after rendering the new State. It
// is scheduled through the host's post-render hook, never a timer.
type Effect struct {
	Kind EffectKind   `json:"kind,omitempty"`
	Rule rules.RuleID `json:"rule,omitempty"`
}

// Crumb is one step of the breadcrumb trail.
type Crumb struct {
	Label      string             `json:"label"`
	Section    rules.SectionID    `json:"section,omitempty"`
	Subsection rules.SubsectionID `json:"subsection,omitempty"`
}
