package navigate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

// Navigator applies explorer events to States against one rules Store.
type Navigator struct {
	store  *rules.Store
	logger *zap.Logger
}

// New creates a Navigator. A nil logger disables logging.
func New(store *rules.Store, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{store: store, logger: logger}
}

// Store returns the rules the Navigator resolves against.
func (n *Navigator) Store() *rules.Store {
	return n.store
}

// Version returns the edition a State has selected.
func (n *Navigator) Version(state State) (*rules.Version, bool) {
	version, err := n.store.GetVersion(state.Version)
	if err != nil {
		return nil, false
	}
	return version, true
}

// Locate resolves a rule number ("104.3a", "704") to the section and
// subsection that own it in the State's edition.
func (n *Navigator) Locate(state State, rule string) (rules.SectionID, rules.SubsectionID, bool) {
	subID, ok := rules.SubsectionOf(rule)
	if !ok {
		return "", "", false
	}
	version, ok := n.Version(state)
	if !ok {
		return "", "", false
	}
	section, ok := version.Locate(subID)
	if !ok {
		return "", "", false
	}
	return section.ID, subID, true
}

// Navigate selects the subsection owning the rule, clears any search,
// expands the owning section and asks the host to scroll the content to
// the top. An unresolvable rule is expected in prose and leaves the State
// unchanged. Navigating twice to the same rule yields the same State.
func (n *Navigator) Navigate(state State, rule string) (State, Effect) {
	sectionID, subID, ok := n.Locate(state, rule)
	if !ok {
		n.logger.Debug("rule reference did not resolve",
			zap.String("rule", rule), zap.Stringer("version", state.Version))
		return state, Effect{}
	}

	next := state.clearSearch()
	next.Section = sectionID
	next.Subsection = subID
	next.Expanded = state.Expanded.With(sectionID)
	return next, Effect{Kind: EffectScrollToTop}
}

// SelectSubsection selects a subsection from the sidebar and clears any
// search. A pair that does not exist in the edition leaves the State
// unchanged.
func (n *Navigator) SelectSubsection(state State, sectionID rules.SectionID, subID rules.SubsectionID) (State, Effect) {
	version, ok := n.Version(state)
	if !ok {
		return state, Effect{}
	}
	if _, ok := version.Subsection(sectionID, subID); !ok {
		return state, Effect{}
	}

	next := state.clearSearch()
	next.Section = sectionID
	next.Subsection = subID
	return next, Effect{Kind: EffectScrollToTop}
}

// SelectRelated follows a related-rule link of the current subsection.
func (n *Navigator) SelectRelated(state State, subID rules.SubsectionID) (State, Effect) {
	version, ok := n.Version(state)
	if !ok {
		return state, Effect{}
	}
	section, ok := version.Locate(subID)
	if !ok {
		return state, Effect{}
	}
	return n.SelectSubsection(state, section.ID, subID)
}

// SelectResult opens a search result: it selects the result's subsection,
// clears the search and expands the section. Rule results also ask the host
// to scroll the subrule into view.
func (n *Navigator) SelectResult(state State, result search.Result) (State, Effect) {
	next, effect := n.SelectSubsection(state, result.SectionID, result.SubsectionID)
	if effect.Kind == EffectNone {
		return state, Effect{}
	}
	next.Expanded = state.Expanded.With(result.SectionID)
	if result.Type == search.TypeRule && result.RuleID != "" {
		effect = Effect{Kind: EffectScrollToRule, Rule: result.RuleID}
	}
	return next, effect
}

// ToggleSection expands a collapsed section or collapses an expanded one.
func (n *Navigator) ToggleSection(state State, sectionID rules.SectionID) (State, Effect) {
	next := state
	if state.Expanded.Has(sectionID) {
		next.Expanded = state.Expanded.Without(sectionID)
	} else {
		next.Expanded = state.Expanded.With(sectionID)
	}
	return next, Effect{}
}

// UpdateQuery records the query and recomputes the results. A blank query
// clears the results instead of matching everything.
func (n *Navigator) UpdateQuery(state State, query string) (State, Effect) {
	next := state
	next.Query = query
	next.Results = nil
	if strings.TrimSpace(query) == "" {
		return next, Effect{}
	}
	if version, ok := n.Version(state); ok {
		next.Results = search.Search(version, query)
	}
	return next, Effect{}
}

// ChangeVersion switches edition and resets the view, since selections of
// one edition mean nothing in another. Unknown editions are ignored.
func (n *Navigator) ChangeVersion(state State, key rules.VersionKey) (State, Effect) {
	if !n.store.HasVersion(key) {
		return state, Effect{}
	}
	next := NewState()
	next.Version = key
	return next, Effect{Kind: EffectScrollToTop}
}

// Reset returns to the welcome view of the current edition, keeping the
// sidebar as it is.
func (n *Navigator) Reset(state State) (State, Effect) {
	next := state.clearSearch()
	next.Section = ""
	next.Subsection = ""
	return next, Effect{Kind: EffectScrollToTop}
}

// ShowSection resets the view and expands a section in the sidebar.
func (n *Navigator) ShowSection(state State, sectionID rules.SectionID) (State, Effect) {
	version, ok := n.Version(state)
	if !ok {
		return state, Effect{}
	}
	if _, ok := version.Section(sectionID); !ok {
		return state, Effect{}
	}
	next, effect := n.Reset(state)
	next.Expanded = state.Expanded.With(sectionID)
	return next, effect
}

// Current returns the selected subsection, or nil when nothing coherent is
// selected: a subsection only counts together with a section containing it.
func (n *Navigator) Current(state State) *rules.Subsection {
	if state.Section == "" || state.Subsection == "" {
		return nil
	}
	version, ok := n.Version(state)
	if !ok {
		return nil
	}
	sub, ok := version.Subsection(state.Section, state.Subsection)
	if !ok {
		return nil
	}
	return sub
}

// Related resolves the selected subsection's related rules.
func (n *Navigator) Related(state State) []rules.RelatedRule {
	sub := n.Current(state)
	if sub == nil {
		return nil
	}
	version, _ := n.Version(state)
	return version.Related(sub)
}

// Breadcrumbs returns the trail Home / section / subsection for the State.
func (n *Navigator) Breadcrumbs(state State) []Crumb {
	crumbs := []Crumb{{Label: "Home"}}
	version, ok := n.Version(state)
	if !ok || state.Section == "" {
		return crumbs
	}
	section, ok := version.Section(state.Section)
	if !ok {
		return crumbs
	}
	crumbs = append(crumbs, Crumb{Label: section.Title(), Section: section.ID})

	if sub := n.Current(state); sub != nil {
		crumbs = append(crumbs, Crumb{Label: sub.Title(), Section: section.ID, Subsection: sub.ID})
	}
	return crumbs
}
