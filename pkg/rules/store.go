package rules

import (
	"fmt"

	"github.com/coolbeans/mtgrules/pkg/glossary"
	"github.com/coolbeans/mtgrules/pkg/history"
)

// Store is a loaded rules document. It exposes no mutation: every accessor
// is safe for concurrent use.
type Store struct {
	versions        map[VersionKey]*Version
	crossReferences map[RuleID][]RuleID
	glossary        *glossary.Glossary
	history         *history.History
}

// GetVersion returns the requested edition, or an error wrapping
// ErrNotFound when the document does not carry it.
func (s *Store) GetVersion(key VersionKey) (*Version, error) {
	version, ok := s.versions[key]
	if !ok {
		return nil, fmt.Errorf("rules version %q: %w", key, ErrNotFound)
	}
	return version, nil
}

// HasVersion reports whether the document carries the edition.
func (s *Store) HasVersion(key VersionKey) bool {
	_, ok := s.versions[key]
	return ok
}

// Versions returns the loaded editions in canonical key order.
func (s *Store) Versions() []*Version {
	versions := make([]*Version, 0, len(s.versions))
	for _, key := range VersionKeys() {
		if version, ok := s.versions[key]; ok {
			versions = append(versions, version)
		}
	}
	return versions
}

// GetSection looks up a section of an edition.
func (s *Store) GetSection(key VersionKey, id SectionID) (*Section, bool) {
	version, ok := s.versions[key]
	if !ok {
		return nil, false
	}
	return version.Section(id)
}

// GetSubsection looks up a subsection of an edition by its owning section.
func (s *Store) GetSubsection(key VersionKey, sectionID SectionID, id SubsectionID) (*Subsection, bool) {
	version, ok := s.versions[key]
	if !ok {
		return nil, false
	}
	return version.Subsection(sectionID, id)
}

// Locate returns the section of an edition that owns the subsection.
func (s *Store) Locate(key VersionKey, id SubsectionID) (SectionID, bool) {
	version, ok := s.versions[key]
	if !ok {
		return "", false
	}
	section, ok := version.Locate(id)
	if !ok {
		return "", false
	}
	return section.ID, true
}

// Related resolves a subsection's related rules within one edition.
func (s *Store) Related(key VersionKey, sub *Subsection) []RelatedRule {
	version, ok := s.versions[key]
	if !ok {
		return nil
	}
	return version.Related(sub)
}

// CrossReferences returns the rules a subrule points at, as published
// alongside the rules text.
func (s *Store) CrossReferences(rule RuleID) []RuleID {
	return s.crossReferences[rule]
}

// Glossary returns the glossary shipped with the document.
func (s *Store) Glossary() *glossary.Glossary {
	return s.glossary
}

// History returns the edition change log shipped with the document.
func (s *Store) History() *history.History {
	return s.history
}

// Stats summarises a loaded document.
type Stats struct {
	Versions        int `json:"versions"`
	Sections        int `json:"sections"`
	Subsections     int `json:"subsections"`
	Subrules        int `json:"subrules"`
	CrossReferences int `json:"cross_references"`
	GlossaryTerms   int `json:"glossary_terms"`
	HistoryEntries  int `json:"history_entries"`
}

// Stats counts the contents of every edition.
func (s *Store) Stats() Stats {
	stats := Stats{
		Versions:        len(s.versions),
		CrossReferences: len(s.crossReferences),
		GlossaryTerms:   s.glossary.Len(),
		HistoryEntries:  s.history.Len(),
	}
	for _, version := range s.versions {
		stats.Sections += len(version.Sections)
		for _, section := range version.Sections {
			stats.Subsections += len(section.Subsections)
			for _, sub := range section.Subsections {
				stats.Subrules += len(sub.Subrules)
			}
		}
	}
	return stats
}
