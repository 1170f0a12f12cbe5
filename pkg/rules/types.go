// Package rules holds the comprehensive rules document: versions, sections,
// subsections, subrules and the cross references between them. A Store is
// built once from a bundled or on-disk document and is read-only afterwards.
package rules

import (
	"errors"
	"strconv"
)

// ErrNotFound is returned when a version, section or subsection lookup has
// no match.
var ErrNotFound = errors.New("not found")

// Subrule is a single numbered clause within a subsection.
type Subrule struct {
	ID   RuleID `json:"id"`
	Text string `json:"text"`
}

// Subsection is the addressable unit of rules content, keyed by a three
// digit numeral.
type Subsection struct {
	ID       SubsectionID   `json:"id"`
	Name     string         `json:"name"`
	Content  string         `json:"content"`
	Subrules []Subrule      `json:"subrules"`
	Related  []SubsectionID `json:"related"`
}

// Title formats the subsection the way the sidebar and breadcrumbs show it.
func (s *Subsection) Title() string {
	return string(s.ID) + ". " + s.Name
}

// Subrule returns the subrule with the given id.
func (s *Subsection) Subrule(id RuleID) (Subrule, bool) {
	for _, rule := range s.Subrules {
		if rule.ID == id {
			return rule, true
		}
	}
	return Subrule{}, false
}

// Section groups subsections under a category such as "Game Concepts".
type Section struct {
	ID          SectionID     `json:"id"`
	Name        string        `json:"name"`
	Subsections []*Subsection `json:"subsections"`

	index map[SubsectionID]*Subsection
}

// Title formats the section the way the sidebar shows it.
func (s *Section) Title() string {
	return string(s.ID) + ". " + s.Name
}

// Subsection looks up a subsection owned by this section.
func (s *Section) Subsection(id SubsectionID) (*Subsection, bool) {
	sub, ok := s.index[id]
	return sub, ok
}

// Version is one edition of the rules.
type Version struct {
	Key      VersionKey `json:"key"`
	Name     string     `json:"name"`
	Date     string     `json:"date"`
	Label    string     `json:"version"`
	Sections []*Section `json:"sections"`

	index map[SectionID]*Section
}

// Section looks up a section by id.
func (v *Version) Section(id SectionID) (*Section, bool) {
	section, ok := v.index[id]
	return section, ok
}

// Subsection looks up a subsection within a given section. It fails when the
// section does not exist or does not contain the subsection.
func (v *Version) Subsection(sectionID SectionID, id SubsectionID) (*Subsection, bool) {
	section, ok := v.Section(sectionID)
	if !ok {
		return nil, false
	}
	return section.Subsection(id)
}

// Locate scans the sections in order and returns the first one that
// contains the subsection. Subsection ids are unique within a version, so
// at most one section can match.
func (v *Version) Locate(id SubsectionID) (*Section, bool) {
	for _, section := range v.Sections {
		if _, ok := section.index[id]; ok {
			return section, true
		}
	}
	return nil, false
}

// SubsectionCount returns the number of subsections across all sections.
func (v *Version) SubsectionCount() int {
	total := 0
	for _, section := range v.Sections {
		total += len(section.Subsections)
	}
	return total
}

// RelatedRule is a resolved cross reference from one subsection to another.
type RelatedRule struct {
	SectionID    SectionID    `json:"section_id"`
	SubsectionID SubsectionID `json:"subsection_id"`
	Name         string       `json:"name"`
}

// Title formats the related rule as "<id>. <name>".
func (r RelatedRule) Title() string {
	return string(r.SubsectionID) + ". " + r.Name
}

// Related resolves the subsection's related ids against this version only.
// Ids that do not resolve are skipped: the published data routinely points
// at subsections that are not part of the dataset.
func (v *Version) Related(sub *Subsection) []RelatedRule {
	if sub == nil {
		return nil
	}
	var related []RelatedRule
	for _, id := range sub.Related {
		section, ok := v.Locate(id)
		if !ok {
			continue
		}
		target := section.index[id]
		related = append(related, RelatedRule{
			SectionID:    section.ID,
			SubsectionID: target.ID,
			Name:         target.Name,
		})
	}
	return related
}

// relatedID renders a numeric related id the way subsection keys are written.
func relatedID(n int) SubsectionID {
	return SubsectionID(strconv.Itoa(n))
}
