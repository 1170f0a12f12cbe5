package explorer

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/mtgrules/pkg/navigate"
	"github.com/coolbeans/mtgrules/pkg/rules"
)

func newModel(t *testing.T) Model {
	t.Helper()
	store, err := rules.Default()
	require.NoError(t, err)
	m := New(navigate.New(store, nil), Options{})
	return send(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
}

// send delivers msg and then any effect messages it schedules, the way the
// bubbletea runtime would after rendering.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	if cmd == nil {
		return model
	}
	if effect, ok := cmd().(effectMsg); ok {
		next, _ = model.Update(effect)
		model = next.(Model)
	}
	return model
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWelcomeView(t *testing.T) {
	m := newModel(t)

	view := m.View()
	assert.Contains(t, view, "Comprehensive Rules")
	assert.Contains(t, view, "Magic: The Gathering Foundations")
	assert.Contains(t, view, "▸ 1. Game Concepts")
}

func TestSidebarToggleAndSelect(t *testing.T) {
	m := newModel(t)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.State().Expanded.Has("1"))
	assert.Contains(t, m.View(), "▾ 1. Game Concepts")

	m = send(t, m, keys("j"))
	m = send(t, m, keys("j"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, rules.SubsectionID("101"), m.State().Subsection)
	assert.Contains(t, m.rendered, "The Magic Golden Rules")
	assert.Contains(t, m.View(), "Home › 1. Game Concepts › 101. The Magic Golden Rules")
}

func TestSearchAndOpenResult(t *testing.T) {
	m := newModel(t)

	m = send(t, m, keys("/"))
	m = send(t, m, keys("can't happen"))
	require.Len(t, m.State().Results, 1)
	assert.Contains(t, m.rendered, "Rule 101.2")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.viewport.Height = 3
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)

	effect, ok := cmd().(effectMsg)
	require.True(t, ok)
	assert.Equal(t, navigate.Effect{Kind: navigate.EffectScrollToRule, Rule: "101.2"}, navigate.Effect(effect))
	assert.Equal(t, rules.SubsectionID("101"), m.State().Subsection)
	assert.False(t, m.State().Searching())
	assert.Equal(t, "", m.input.Value())

	next, _ = m.Update(effect)
	m = next.(Model)
	assert.Equal(t, lineOf(m.rendered, "101.2"), m.viewport.YOffset)
}

func TestSearchEscClears(t *testing.T) {
	m := newModel(t)

	m = send(t, m, keys("/"))
	m = send(t, m, keys("zone"))
	require.True(t, m.State().Searching())

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.State().Searching())
	assert.Equal(t, "", m.State().Query)
	assert.Equal(t, focusSidebar, m.focus)
}

func TestFollowReference(t *testing.T) {
	m := newModel(t)
	m = send(t, m, keys("g"))

	next, effect := m.nav.Navigate(m.State(), "100.1")
	m, _ = m.apply(next, effect)
	assert.Equal(t, []string{"102", "800"}, m.refs)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.refIndex)
	assert.Contains(t, m.View(), "reference 1/2")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, rules.SubsectionID("102"), m.State().Subsection)
	assert.Equal(t, -1, m.refIndex)
	assert.Equal(t, 0, m.viewport.YOffset)

	// 613 is not part of the bundled data: following it changes nothing.
	next, effect = m.nav.Navigate(m.State(), "101")
	m, _ = m.apply(next, effect)
	assert.Equal(t, []string{"101.3", "613"}, m.refs)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, "613", m.refs[m.refIndex])
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, rules.SubsectionID("101"), m.State().Subsection)
	assert.Equal(t, 1, m.refIndex)
}

func TestFollowRelatedWithDigit(t *testing.T) {
	m := newModel(t)
	next, effect := m.nav.Navigate(m.State(), "201")
	m, _ = m.apply(next, effect)

	assert.Contains(t, m.View(), "related: 1 200. General")
	m = send(t, m, keys("1"))
	assert.Equal(t, rules.SubsectionID("200"), m.State().Subsection)

	m = send(t, m, keys("9"))
	assert.Equal(t, rules.SubsectionID("200"), m.State().Subsection)
}

func TestVersionSwitchResetsView(t *testing.T) {
	m := newModel(t)
	next, effect := m.nav.Navigate(m.State(), "101.1")
	m, _ = m.apply(next, effect)

	m = send(t, m, keys("v"))
	assert.Equal(t, navigate.State{Version: rules.VersionPrevious}, m.State())
	assert.Contains(t, m.View(), "Wilds of Eldraine")
	assert.Contains(t, m.rendered, "No rules are loaded for this edition.")

	m = send(t, m, keys("v"))
	assert.Equal(t, rules.VersionCurrent, m.State().Version)
}

func TestQuit(t *testing.T) {
	m := newModel(t)

	for _, msg := range []tea.KeyMsg{keys("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(msg)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}

	// q is text while searching.
	m = send(t, m, keys("/"))
	m = send(t, m, keys("q"))
	assert.Equal(t, "q", m.State().Query)
}
