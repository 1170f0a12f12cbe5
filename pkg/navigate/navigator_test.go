package navigate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

func newNavigator(t *testing.T) *Navigator {
	t.Helper()
	store, err := rules.Default()
	require.NoError(t, err)
	return New(store, zaptest.NewLogger(t))
}

func TestNavigate_ResolvesFixtureRules(t *testing.T) {
	nav := newNavigator(t)

	tests := []struct {
		rule           string
		wantSection    rules.SectionID
		wantSubsection rules.SubsectionID
	}{
		{"101.2", "1", "101"},
		{"100", "1", "100"},
		{"201.1", "2", "201"},
		{"900.2", "9", "900"},
		{"104.3a", "", ""},
		{"704", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			start := NewState()
			next, effect := nav.Navigate(start, tt.rule)

			if tt.wantSection == "" {
				assert.Equal(t, start, next)
				assert.Equal(t, EffectNone, effect.Kind)
				return
			}
			assert.Equal(t, tt.wantSection, next.Section)
			assert.Equal(t, tt.wantSubsection, next.Subsection)
			assert.True(t, next.Expanded.Has(tt.wantSection))
			assert.Equal(t, EffectScrollToTop, effect.Kind)
		})
	}
}

func TestNavigate_ClearsSearch(t *testing.T) {
	nav := newNavigator(t)

	state, _ := nav.UpdateQuery(NewState(), "player")
	require.True(t, state.Searching())

	state, _ = nav.Navigate(state, "102.1")
	assert.Equal(t, "", state.Query)
	assert.Empty(t, state.Results)
	assert.Equal(t, rules.SubsectionID("102"), state.Subsection)
}

func TestNavigate_Idempotent(t *testing.T) {
	nav := newNavigator(t)
	start, _ := nav.ToggleSection(NewState(), "3")
	start, _ = nav.UpdateQuery(start, "zone")

	once, effectOnce := nav.Navigate(start, "400.1")
	twice, effectTwice := nav.Navigate(once, "400.1")

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second Navigate changed state (-once +twice):\n%s", diff)
	}
	assert.Equal(t, effectOnce, effectTwice)
	assert.Equal(t, SectionSet{"3", "4"}, twice.Expanded)
}

func TestNavigate_UnresolvableLeavesStateUnchanged(t *testing.T) {
	nav := newNavigator(t)
	start, _ := nav.Navigate(NewState(), "101")

	for _, rule := range []string{"", "rule", "1045", "613", "10"} {
		next, effect := nav.Navigate(start, rule)
		assert.Equal(t, start, next, "rule %q", rule)
		assert.Equal(t, Effect{}, effect)
	}
}

func TestNavigate_DoesNotMutateInput(t *testing.T) {
	nav := newNavigator(t)
	start, _ := nav.ToggleSection(NewState(), "1")
	expanded := append(SectionSet(nil), start.Expanded...)

	nav.Navigate(start, "201")
	assert.Equal(t, expanded, start.Expanded)
}

func TestSelectSubsection(t *testing.T) {
	nav := newNavigator(t)
	state, _ := nav.UpdateQuery(NewState(), "card")

	next, effect := nav.SelectSubsection(state, "2", "201")
	assert.Equal(t, rules.SectionID("2"), next.Section)
	assert.Equal(t, rules.SubsectionID("201"), next.Subsection)
	assert.False(t, next.Searching())
	assert.Equal(t, "", next.Query)
	assert.Equal(t, EffectScrollToTop, effect.Kind)
	// Selecting from the sidebar does not touch expansion.
	assert.Empty(t, next.Expanded)

	// Section 1 does not contain 201.
	unchanged, effect := nav.SelectSubsection(next, "1", "201")
	assert.Equal(t, next, unchanged)
	assert.Equal(t, EffectNone, effect.Kind)
}

func TestSelectResult(t *testing.T) {
	nav := newNavigator(t)
	state, _ := nav.UpdateQuery(NewState(), "can't happen")
	require.Len(t, state.Results, 1)

	next, effect := nav.SelectResult(state, state.Results[0])
	assert.Equal(t, rules.SubsectionID("101"), next.Subsection)
	assert.True(t, next.Expanded.Has("1"))
	assert.False(t, next.Searching())
	assert.Equal(t, Effect{Kind: EffectScrollToRule, Rule: "101.2"}, effect)

	subsectionResult := search.Result{Type: search.TypeSubsection, SectionID: "1", SubsectionID: "102"}
	next, effect = nav.SelectResult(state, subsectionResult)
	assert.Equal(t, rules.SubsectionID("102"), next.Subsection)
	assert.Equal(t, EffectScrollToTop, effect.Kind)

	bogus := search.Result{Type: search.TypeRule, SectionID: "1", SubsectionID: "999", RuleID: "999.1"}
	next, effect = nav.SelectResult(state, bogus)
	assert.Equal(t, state, next)
	assert.Equal(t, EffectNone, effect.Kind)
}

func TestSelectRelated(t *testing.T) {
	nav := newNavigator(t)
	state, _ := nav.Navigate(NewState(), "201")

	related := nav.Related(state)
	require.Len(t, related, 1)

	next, _ := nav.SelectRelated(state, related[0].SubsectionID)
	assert.Equal(t, rules.SectionID("2"), next.Section)
	assert.Equal(t, rules.SubsectionID("200"), next.Subsection)

	unchanged, _ := nav.SelectRelated(state, "706")
	assert.Equal(t, state, unchanged)
}

func TestToggleSection(t *testing.T) {
	nav := newNavigator(t)

	state, _ := nav.ToggleSection(NewState(), "2")
	state, _ = nav.ToggleSection(state, "1")
	assert.Equal(t, SectionSet{"1", "2"}, state.Expanded)

	state, _ = nav.ToggleSection(state, "2")
	assert.Equal(t, SectionSet{"1"}, state.Expanded)
}

func TestUpdateQuery(t *testing.T) {
	nav := newNavigator(t)

	state, _ := nav.UpdateQuery(NewState(), "player")
	assert.Equal(t, "player", state.Query)
	assert.NotEmpty(t, state.Results)

	state, _ = nav.UpdateQuery(state, "   ")
	assert.Equal(t, "   ", state.Query)
	assert.Empty(t, state.Results)

	state, _ = nav.UpdateQuery(state, "")
	assert.Empty(t, state.Results)
}

func TestChangeVersion(t *testing.T) {
	nav := newNavigator(t)
	state, _ := nav.Navigate(NewState(), "101.1")

	next, effect := nav.ChangeVersion(state, rules.VersionPrevious)
	assert.Equal(t, State{Version: rules.VersionPrevious}, next)
	assert.Equal(t, EffectScrollToTop, effect.Kind)

	// The previous edition ships without sections: nothing resolves.
	unchanged, _ := nav.Navigate(next, "101.1")
	assert.Equal(t, next, unchanged)
	assert.Empty(t, nav.Breadcrumbs(next)[1:])

	unknown, _ := nav.ChangeVersion(state, rules.VersionKey(9))
	assert.Equal(t, state, unknown)
}

func TestResetAndShowSection(t *testing.T) {
	nav := newNavigator(t)
	state, _ := nav.Navigate(NewState(), "101.1")

	reset, _ := nav.Reset(state)
	assert.Equal(t, rules.SectionID(""), reset.Section)
	assert.Equal(t, rules.SubsectionID(""), reset.Subsection)
	assert.Equal(t, state.Expanded, reset.Expanded)

	shown, _ := nav.ShowSection(reset, "5")
	assert.Equal(t, SectionSet{"1", "5"}, shown.Expanded)
	assert.Nil(t, nav.Current(shown))

	unchanged, _ := nav.ShowSection(reset, "42")
	assert.Equal(t, reset, unchanged)
}

func TestCurrentRequiresCoherentSelection(t *testing.T) {
	nav := newNavigator(t)

	state := NewState()
	state.Section = "2"
	state.Subsection = "101"
	assert.Nil(t, nav.Current(state))

	state.Section = "1"
	require.NotNil(t, nav.Current(state))
	assert.Equal(t, "The Magic Golden Rules", nav.Current(state).Name)
}

func TestBreadcrumbs(t *testing.T) {
	nav := newNavigator(t)

	assert.Equal(t, []Crumb{{Label: "Home"}}, nav.Breadcrumbs(NewState()))

	state, _ := nav.Navigate(NewState(), "101.2")
	assert.Equal(t, []Crumb{
		{Label: "Home"},
		{Label: "1. Game Concepts", Section: "1"},
		{Label: "101. The Magic Golden Rules", Section: "1", Subsection: "101"},
	}, nav.Breadcrumbs(state))
}
