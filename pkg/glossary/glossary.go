// Package glossary provides lookup, letter browsing and search over the
// comprehensive rules glossary.
package glossary

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coolbeans/mtgrules/pkg/reference"
	"github.com/coolbeans/mtgrules/pkg/textmatch"
)

// AllLetters disables the letter filter.
const AllLetters = "all"

// MinQueryLength is the shortest query Search accepts.
const MinQueryLength = 2

// ErrQueryTooShort is returned by Search for queries under MinQueryLength.
var ErrQueryTooShort = errors.New("glossary query must be at least 2 characters")

// Term is a glossary term and its definition.
type Term struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Glossary is an immutable set of terms, kept in sorted order.
type Glossary struct {
	terms  map[string]string
	sorted []string
	parser *reference.Parser
}

// New builds a glossary from term definitions.
func New(definitions map[string]string) *Glossary {
	g := &Glossary{
		terms:  make(map[string]string, len(definitions)),
		sorted: make([]string, 0, len(definitions)),
		parser: reference.NewGlossaryParser(),
	}
	for name, definition := range definitions {
		g.terms[name] = definition
		g.sorted = append(g.sorted, name)
	}
	sort.Strings(g.sorted)
	return g
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.sorted)
}

// Terms returns every term in sorted order.
func (g *Glossary) Terms() []Term {
	if g == nil {
		return nil
	}
	return g.collect(func(string, string) bool { return true })
}

// Lookup finds a term ignoring case.
func (g *Glossary) Lookup(name string) (Term, bool) {
	if g == nil {
		return Term{}, false
	}
	if definition, ok := g.terms[name]; ok {
		return Term{Name: name, Definition: definition}, true
	}
	for _, candidate := range g.sorted {
		if strings.EqualFold(candidate, name) {
			return Term{Name: candidate, Definition: g.terms[candidate]}, true
		}
	}
	return Term{}, false
}

// Letters returns the distinct upper-case initials in use, sorted.
func (g *Glossary) Letters() []string {
	if g == nil {
		return nil
	}
	var letters []string
	seen := make(map[string]bool)
	for _, name := range g.sorted {
		initial := initialOf(name)
		if initial == "" || seen[initial] {
			continue
		}
		seen[initial] = true
		letters = append(letters, initial)
	}
	sort.Strings(letters)
	return letters
}

// ByLetter returns the terms whose upper-cased first character equals
// letter. AllLetters or "" returns every term.
func (g *Glossary) ByLetter(letter string) []Term {
	if g == nil {
		return nil
	}
	if letter == "" || letter == AllLetters {
		return g.Terms()
	}
	want := strings.ToUpper(letter)
	return g.collect(func(name, _ string) bool {
		return initialOf(name) == want
	})
}

// Search returns the terms whose name or definition contains the query,
// case-insensitively.
func (g *Glossary) Search(query string) ([]Term, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	if g == nil {
		return nil, nil
	}
	match := textmatch.Trimmed(query)
	return g.collect(func(name, definition string) bool {
		return match.Any(name, definition)
	}), nil
}

// Segments parses a term's definition into text and rule citations.
func (g *Glossary) Segments(term Term) []reference.Segment {
	return g.parser.Parse(term.Definition)
}

func (g *Glossary) collect(keep func(name, definition string) bool) []Term {
	var terms []Term
	for _, name := range g.sorted {
		definition := g.terms[name]
		if keep(name, definition) {
			terms = append(terms, Term{Name: name, Definition: definition})
		}
	}
	return terms
}

func initialOf(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r))
}
