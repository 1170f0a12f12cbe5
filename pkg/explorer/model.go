// Package explorer is the interactive terminal front end: a sidebar of
// sections, a search box and a scrolling content pane whose rule citations
// can be cycled with tab and followed with enter.
package explorer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/coolbeans/mtgrules/pkg/navigate"
	"github.com/coolbeans/mtgrules/pkg/reference"
	"github.com/coolbeans/mtgrules/pkg/render"
	"github.com/coolbeans/mtgrules/pkg/rules"
)

type focus int

const (
	focusSidebar focus = iota
	focusContent
	focusSearch
)

// effectMsg delivers a navigation Effect once the new state has rendered.
type effectMsg navigate.Effect

type sidebarRow struct {
	section    rules.SectionID
	subsection rules.SubsectionID
	label      string
}

// Options configures a Model.
type Options struct {
	// Renderer styles the content pane. Nil shows raw Markdown.
	Renderer *render.Terminal
	Logger   *zap.Logger

	// State is the initial view; the zero value opens the default edition.
	State navigate.State
}

// Model is the bubbletea model of the explorer.
type Model struct {
	nav      *navigate.Navigator
	state    navigate.State
	renderer *render.Terminal
	logger   *zap.Logger
	styles   styles

	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int

	focus       focus
	cursor      int
	resultIndex int

	// Citations of the shown subsection in display order, and the one
	// selected with tab (-1 for none).
	refs     []string
	refIndex int
	shown    rules.SubsectionID

	rendered string
}

// New creates the explorer over a Navigator.
func New(nav *navigate.Navigator, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Search rules... (enter to browse results, esc to clear)"
	ti.Prompt = "/ "
	ti.CharLimit = 256
	ti.Width = 60

	m := Model{
		nav:      nav,
		state:    opts.State,
		renderer: opts.Renderer,
		logger:   logger,
		styles:   defaultStyles(),
		input:    ti,
		viewport: viewport.New(80, 20),
		width:    80 + sidebarWidth,
		height:   24,
		refIndex: -1,
	}
	m.refresh()
	return m
}

// State returns the current navigation state.
func (m Model) State() navigate.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-sidebarWidth-2, 20)
		m.viewport.Height = max(msg.Height-4, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case effectMsg:
		m.runEffect(navigate.Effect(msg))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.focus == focusSearch {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// apply installs the next state, re-renders, and schedules the Effect to
// run after the new content is on screen.
func (m Model) apply(next navigate.State, effect navigate.Effect) (Model, tea.Cmd) {
	m.state = next
	if m.input.Value() != next.Query {
		m.input.SetValue(next.Query)
	}
	m.refresh()
	if effect.Kind == navigate.EffectNone {
		return m, nil
	}
	return m, func() tea.Msg { return effectMsg(effect) }
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.focus = focusSidebar
		return m.apply(m.nav.UpdateQuery(m.state, ""))
	case tea.KeyEnter:
		m.input.Blur()
		m.focus = focusContent
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == m.state.Query {
		return m, cmd
	}
	m.resultIndex = 0
	next, effectCmd := m.apply(m.nav.UpdateQuery(m.state, m.input.Value()))
	return next, tea.Batch(cmd, effectCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit

	case "/":
		m.focus = focusSearch
		cmd := m.input.Focus()
		return m, cmd

	case "esc":
		if m.state.Query != "" {
			return m.apply(m.nav.UpdateQuery(m.state, ""))
		}
		return m, nil

	case "v":
		return m.cycleVersion()

	case "g", "home":
		return m.apply(m.nav.Reset(m.state))

	case "left", "h":
		m.focus = focusSidebar
		return m, nil

	case "right", "l":
		m.focus = focusContent
		return m, nil

	case "tab":
		m.cycleRef(1)
		return m, nil

	case "shift+tab":
		m.cycleRef(-1)
		return m, nil

	case "up", "k":
		return m.move(-1, msg)

	case "down", "j":
		return m.move(1, msg)

	case "enter", " ":
		return m.activate()

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		related := m.nav.Related(m.state)
		idx := int(key[0] - '1')
		if idx >= len(related) {
			return m, nil
		}
		return m.apply(m.nav.SelectRelated(m.state, related[idx].SubsectionID))
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) move(delta int, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.focus == focusSidebar:
		rows := m.rows()
		m.cursor = clamp(m.cursor+delta, 0, len(rows)-1)
		return m, nil
	case m.state.Searching():
		m.resultIndex = clamp(m.resultIndex+delta, 0, len(m.state.Results)-1)
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	if m.focus == focusSidebar {
		rows := m.rows()
		if m.cursor >= len(rows) {
			return m, nil
		}
		row := rows[m.cursor]
		if row.subsection == "" {
			return m.apply(m.nav.ToggleSection(m.state, row.section))
		}
		return m.apply(m.nav.SelectSubsection(m.state, row.section, row.subsection))
	}

	if m.state.Searching() {
		result := m.state.Results[clamp(m.resultIndex, 0, len(m.state.Results)-1)]
		m.resultIndex = 0
		return m.apply(m.nav.SelectResult(m.state, result))
	}
	if m.refIndex >= 0 && m.refIndex < len(m.refs) {
		return m.apply(m.nav.Navigate(m.state, m.refs[m.refIndex]))
	}
	return m, nil
}

func (m Model) cycleVersion() (tea.Model, tea.Cmd) {
	keys := rules.VersionKeys()
	next := keys[0]
	for i, key := range keys {
		if key == m.state.Version {
			next = keys[(i+1)%len(keys)]
			break
		}
	}
	m.cursor = 0
	m.focus = focusSidebar
	return m.apply(m.nav.ChangeVersion(m.state, next))
}

func (m *Model) cycleRef(delta int) {
	if len(m.refs) == 0 {
		m.refIndex = -1
		return
	}
	m.focus = focusContent
	if m.refIndex < 0 {
		if delta > 0 {
			m.refIndex = 0
		} else {
			m.refIndex = len(m.refs) - 1
		}
		return
	}
	m.refIndex = (m.refIndex + delta + len(m.refs)) % len(m.refs)
}

func (m *Model) runEffect(effect navigate.Effect) {
	switch effect.Kind {
	case navigate.EffectScrollToTop:
		m.viewport.GotoTop()
	case navigate.EffectScrollToRule:
		if line := lineOf(m.rendered, string(effect.Rule)); line >= 0 {
			m.viewport.SetYOffset(line)
		}
	}
}

// refresh recomputes everything derived from the state.
func (m *Model) refresh() {
	m.cursor = clamp(m.cursor, 0, len(m.rows())-1)
	m.resultIndex = clamp(m.resultIndex, 0, len(m.state.Results)-1)

	sub := m.nav.Current(m.state)
	var shown rules.SubsectionID
	if sub != nil {
		shown = sub.ID
	}
	if shown != m.shown {
		m.shown = shown
		m.refIndex = -1
	}
	m.refs = citations(m.nav.Store(), sub)
	if m.refIndex >= len(m.refs) {
		m.refIndex = -1
	}

	markdown := m.markdown()
	m.rendered = markdown
	if m.renderer != nil {
		out, err := m.renderer.Render(markdown)
		if err != nil {
			m.logger.Warn("rendering content failed", zap.Error(err))
		} else {
			m.rendered = out
		}
	}
	m.viewport.SetContent(m.rendered)
}

func (m *Model) markdown() string {
	version, ok := m.nav.Version(m.state)
	if !ok {
		return "# Comprehensive Rules\n\nThis edition is not available.\n"
	}
	if m.state.Searching() || strings.TrimSpace(m.state.Query) != "" {
		return render.Results(m.state.Query, m.state.Results)
	}
	if sub := m.nav.Current(m.state); sub != nil {
		return render.Subsection(m.nav.Store(), version, sub)
	}
	return welcome(version)
}

func welcome(version *rules.Version) string {
	var b strings.Builder
	b.WriteString("# Comprehensive Rules\n\n")
	fmt.Fprintf(&b, "**%s**, %s\n\n", version.Label, version.Date)
	if len(version.Sections) == 0 {
		b.WriteString("No rules are loaded for this edition.\n")
		return b.String()
	}
	for _, section := range version.Sections {
		fmt.Fprintf(&b, "- %s\n", section.Title())
	}
	return b.String()
}

// citations lists the rule numbers a subsection links to, in the order the
// content pane shows them: prose citations, then each subrule's citations
// followed by its published cross references.
func citations(store *rules.Store, sub *rules.Subsection) []string {
	if sub == nil {
		return nil
	}
	parser := reference.NewParser()
	refs := parser.Rules(sub.Content)
	for _, subrule := range sub.Subrules {
		refs = append(refs, parser.Rules(subrule.Text)...)
		for _, ref := range store.CrossReferences(subrule.ID) {
			refs = append(refs, string(ref))
		}
	}
	return refs
}

func (m Model) rows() []sidebarRow {
	version, ok := m.nav.Version(m.state)
	if !ok {
		return nil
	}
	var rows []sidebarRow
	for _, section := range version.Sections {
		rows = append(rows, sidebarRow{section: section.ID, label: section.Title()})
		if !m.state.Expanded.Has(section.ID) {
			continue
		}
		for _, sub := range section.Subsections {
			rows = append(rows, sidebarRow{section: section.ID, subsection: sub.ID, label: sub.Title()})
		}
	}
	return rows
}

func (m Model) View() string {
	header := m.header()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Sidebar.Height(m.viewport.Height).Render(m.sidebar()),
		m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.input.View(), m.footer())
}

func (m Model) header() string {
	crumbs := m.nav.Breadcrumbs(m.state)
	labels := make([]string, len(crumbs))
	for i, crumb := range crumbs {
		labels[i] = crumb.Label
	}
	line := m.styles.Header.Render(strings.Join(labels, " › "))
	if version, ok := m.nav.Version(m.state); ok {
		line += "  " + m.styles.Muted.Render(fmt.Sprintf("%s (%s)", version.Label, version.Date))
	}
	return line
}

func (m Model) sidebar() string {
	rows := m.rows()
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		var line string
		switch {
		case row.subsection == "" && m.state.Expanded.Has(row.section):
			line = "▾ " + row.label
		case row.subsection == "":
			line = "▸ " + row.label
		default:
			line = "   " + row.label
		}
		if row.subsection != "" && row.subsection == m.state.Subsection && row.section == m.state.Section {
			line = m.styles.Active.Render(line)
		}
		if m.focus == focusSidebar && i == m.cursor {
			line = m.styles.Cursor.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	if m.state.Searching() {
		result := m.state.Results[m.resultIndex]
		return m.styles.Footer.Render(fmt.Sprintf("result %d/%d: %s · ↑/↓ choose · enter open · esc clear",
			m.resultIndex+1, len(m.state.Results), result.Title))
	}
	if m.refIndex >= 0 {
		return m.styles.Footer.Render(fmt.Sprintf("reference %d/%d: ", m.refIndex+1, len(m.refs))) +
			m.styles.Reference.Render("rule "+m.refs[m.refIndex]) +
			m.styles.Footer.Render(" · enter follow · tab next")
	}

	help := "/ search · tab references · v edition · g home · q quit"
	if related := m.nav.Related(m.state); len(related) > 0 {
		parts := make([]string, len(related))
		for i, rel := range related {
			parts[i] = fmt.Sprintf("%d %s", i+1, rel.Title())
		}
		help = "related: " + strings.Join(parts, " · ") + " · " + help
	}
	return m.styles.Footer.Render(help)
}

func lineOf(content, needle string) int {
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, needle) {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
