// Package reference finds rule citations such as "See rule 704" or
// "rule 104.3a" in rules prose and splits the text into plain and
// reference segments that a view can render as links.
package reference

import (
	"regexp"
	"strings"
)

// Kind tells a plain text segment from a rule citation.
type Kind string

const (
	KindText      Kind = "text"
	KindReference Kind = "reference"
)

// Segment is one piece of parsed prose.
type Segment struct {
	Kind Kind `json:"kind"`

	// Text is what a view displays for the segment.
	Text string `json:"text"`

	// Rule is the cited rule number (reference segments only).
	Rule string `json:"rule,omitempty"`

	// Suffix holds a quoted title that trailed the citation, e.g.
	// `, "Abilities,"`. It is dropped from the display.
	Suffix string `json:"-"`

	// Offset is the byte offset of Text in the source.
	Offset int `json:"offset"`
}

// IsReference reports whether the segment is a rule citation.
func (s Segment) IsReference() bool {
	return s.Kind == KindReference
}

// Parser splits text around rule citations.
type Parser struct {
	pattern *regexp.Regexp

	// Submatch indexes of the displayed phrase and of the rule number.
	displayGroup int
	ruleGroup    int
}

// NewParser returns the parser used for rule content: it matches
// "[See ]rule NNN[.N[letters]]", case-insensitively, optionally followed by a
// quoted title (`rule 113, "Abilities,"`) which is left out of the display.
func NewParser() *Parser {
	return &Parser{
		pattern:      regexp.MustCompile(`(?i)((?:See\s+)?rule\s+(\d{3}(?:\.\d+[a-z]*)?))(?:[.,]\s*"[^"]*")?`),
		displayGroup: 1,
		ruleGroup:    2,
	}
}

// NewGlossaryParser returns the looser parser used for glossary definitions:
// lowercase "rule N" followed by any number of dotted numeric parts.
func NewGlossaryParser() *Parser {
	return &Parser{
		pattern:      regexp.MustCompile(`rule (\d+(?:\.\d+)*)`),
		displayGroup: 0,
		ruleGroup:    1,
	}
}

// Parse scans text left to right and returns its segments in order. Text
// without citations comes back as a single text segment; empty text yields
// no segments. Parse never fails: anything that does not fully match a
// citation stays plain text.
func (p *Parser) Parse(text string) []Segment {
	matches := p.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []Segment{{Kind: KindText, Text: text}}
	}

	segments := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			segments = append(segments, Segment{Kind: KindText, Text: text[last:start], Offset: last})
		}

		displayStart, displayEnd := m[2*p.displayGroup], m[2*p.displayGroup+1]
		ruleStart, ruleEnd := m[2*p.ruleGroup], m[2*p.ruleGroup+1]
		segments = append(segments, Segment{
			Kind:   KindReference,
			Text:   text[displayStart:displayEnd],
			Rule:   text[ruleStart:ruleEnd],
			Suffix: text[displayEnd:end],
			Offset: displayStart,
		})
		last = end
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: KindText, Text: text[last:], Offset: last})
	}
	return segments
}

// Rules returns the cited rule numbers in order of appearance.
func (p *Parser) Rules(text string) []string {
	var rules []string
	for _, m := range p.pattern.FindAllStringSubmatch(text, -1) {
		rules = append(rules, m[p.ruleGroup])
	}
	return rules
}

// References returns only the citation segments.
func References(segments []Segment) []Segment {
	var refs []Segment
	for _, segment := range segments {
		if segment.IsReference() {
			refs = append(refs, segment)
		}
	}
	return refs
}

// Display concatenates the displayed text of the segments. It equals the
// source with every quoted-title suffix removed.
func Display(segments []Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		b.WriteString(segment.Text)
	}
	return b.String()
}

// Join reassembles the exact source text, suffixes included.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, segment := range segments {
		b.WriteString(segment.Text)
		b.WriteString(segment.Suffix)
	}
	return b.String()
}
