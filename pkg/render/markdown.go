// Package render turns rules content into Markdown, for the terminal and
// for plain output.
package render

import (
	"fmt"
	"strings"

	"github.com/coolbeans/mtgrules/pkg/glossary"
	"github.com/coolbeans/mtgrules/pkg/reference"
	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
)

func escape(s string) string {
	return escaper.Replace(s)
}

// Segments writes parsed prose, emphasising each citation as a link to the
// cited rule.
func Segments(segments []reference.Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		if segment.IsReference() {
			fmt.Fprintf(&b, "[*%s*](#%s)", escape(segment.Text), segment.Rule)
			continue
		}
		b.WriteString(escape(segment.Text))
	}
	return b.String()
}

// Subsection renders a subsection of the version: heading, content, each
// subrule with its published cross references and change history, then the
// related rules that resolve in the same edition.
func Subsection(store *rules.Store, version *rules.Version, sub *rules.Subsection) string {
	parser := reference.NewParser()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(sub.Title()))
	if sub.Content != "" {
		fmt.Fprintf(&b, "%s\n\n", Segments(parser.Parse(sub.Content)))
	}

	for _, subrule := range sub.Subrules {
		fmt.Fprintf(&b, "**%s** %s\n\n", subrule.ID, Segments(parser.Parse(subrule.Text)))

		if refs := store.CrossReferences(subrule.ID); len(refs) > 0 {
			links := make([]string, len(refs))
			for i, ref := range refs {
				links[i] = fmt.Sprintf("[%s](#%s)", ref, ref)
			}
			fmt.Fprintf(&b, "> See also: %s\n\n", strings.Join(links, ", "))
		}

		for _, change := range store.History().ForRule(string(subrule.ID)) {
			fmt.Fprintf(&b, "> Changed in %s (%s): %s\n\n", escape(change.Version), change.Date, escape(change.New))
		}
	}

	if related := version.Related(sub); len(related) > 0 {
		b.WriteString("## Related Rules\n\n")
		for _, rel := range related {
			fmt.Fprintf(&b, "- [%s](#%s)\n", escape(rel.Title()), rel.SubsectionID)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Section renders a section heading and its subsection list.
func Section(section *rules.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escape(section.Title()))
	for _, sub := range section.Subsections {
		fmt.Fprintf(&b, "- [%s](#%s)\n", escape(sub.Title()), sub.ID)
	}
	return b.String()
}

// Term renders a glossary entry.
func Term(g *glossary.Glossary, term glossary.Term) string {
	return fmt.Sprintf("## %s\n\n%s\n", escape(term.Name), Segments(g.Segments(term)))
}

// Results renders search results as a list, most relevant first.
func Results(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search: %s\n\n", escape(query))
	if len(results) == 0 {
		b.WriteString("No results.\n")
		return b.String()
	}
	for _, result := range results {
		target := string(result.SubsectionID)
		if result.RuleID != "" {
			target = string(result.RuleID)
		}
		fmt.Fprintf(&b, "- **[%s](#%s)** %s\n", escape(result.Title), target, escape(result.Content))
	}
	return b.String()
}
