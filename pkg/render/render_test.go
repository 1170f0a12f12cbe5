package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/mtgrules/pkg/reference"
	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

func loadCurrent(t *testing.T) (*rules.Store, *rules.Version) {
	t.Helper()
	store, err := rules.Default()
	require.NoError(t, err)
	version, err := store.GetVersion(rules.VersionCurrent)
	require.NoError(t, err)
	return store, version
}

func TestSegments(t *testing.T) {
	segments := reference.NewParser().Parse(`See rule 113, "Abilities," and rule 602.`)
	assert.Equal(t, "[*See rule 113*](#113) and [*rule 602*](#602).", Segments(segments))

	assert.Equal(t, `\[Cost\]: \*`, Segments(reference.NewParser().Parse("[Cost]: *")))
}

func TestSubsection(t *testing.T) {
	store, version := loadCurrent(t)
	sub, ok := version.Subsection("1", "101")
	require.True(t, ok)

	md := Subsection(store, version, sub)

	assert.True(t, strings.HasPrefix(md, "# 101. The Magic Golden Rules\n"))
	assert.Contains(t, md, "**101.1** Whenever a card's text")
	assert.Contains(t, md, "> See also: [101.3](#101.3), [613](#613)")
	assert.Contains(t, md, "## Related Rules")
	assert.Contains(t, md, "- [100. General](#100)")
	// 113 and 609 are not part of the bundled edition.
	assert.NotContains(t, md, "#113")
}

func TestSubsection_CitationsAndHistory(t *testing.T) {
	store, version := loadCurrent(t)

	sub, ok := version.Subsection("2", "200")
	require.True(t, ok)
	assert.Contains(t, Subsection(store, version, sub), "[*See rule 109.3*](#109.3)")

	sub, ok = version.Subsection("1", "102")
	require.True(t, ok)
	assert.Contains(t, Subsection(store, version, sub), "> Changed in Wilds of Eldraine (August 11, 2023)")
}

func TestSection(t *testing.T) {
	_, version := loadCurrent(t)
	section, ok := version.Section("2")
	require.True(t, ok)

	assert.Equal(t, "# 2. Parts of a Card\n\n- [200. General](#200)\n- [201. Name](#201)\n", Section(section))
}

func TestTerm(t *testing.T) {
	store, _ := loadCurrent(t)
	g := store.Glossary()
	term, ok := g.Lookup("Active Player")
	require.True(t, ok)

	assert.Equal(t, "## Active Player\n\nThe player whose turn it is. See [*rule 102.1*](#102.1).\n", Term(g, term))
}

func TestResults(t *testing.T) {
	assert.Contains(t, Results("nothing", nil), "No results.")

	md := Results("golden", []search.Result{
		{Type: search.TypeSubsection, SubsectionID: "101", Title: "101. The Magic Golden Rules", Content: "The Golden Rules"},
		{Type: search.TypeRule, SubsectionID: "101", RuleID: "101.1", Title: "Rule 101.1", Content: "Whenever"},
	})
	assert.Contains(t, md, "- **[101. The Magic Golden Rules](#101)** The Golden Rules")
	assert.Contains(t, md, "- **[Rule 101.1](#101.1)** Whenever")
}

func TestTerminal(t *testing.T) {
	term, err := NewTerminal(60, "notty")
	require.NoError(t, err)

	store, version := loadCurrent(t)
	sub, _ := version.Subsection("1", "101")
	out, err := term.Render(Subsection(store, version, sub))
	require.NoError(t, err)
	assert.Contains(t, out, "The Magic Golden Rules")
	assert.Contains(t, out, "101.2")
}
