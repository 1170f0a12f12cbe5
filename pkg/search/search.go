// Package search finds subsections and subrules of a rules edition by
// case-insensitive substring and ranks them by a small ordinal relevance.
package search

import (
	"sort"
	"strings"

	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/textmatch"
)

// ResultType tells a subsection hit from a subrule hit.
type ResultType string

const (
	TypeSubsection ResultType = "subsection"
	TypeRule       ResultType = "rule"
)

// Relevance orders results; higher sorts first. It carries no meaning
// beyond ordering.
type Relevance int

const (
	// RelevanceText is a match in subsection content or subrule text.
	RelevanceText Relevance = 1

	// RelevanceName is a match in a subsection name.
	RelevanceName Relevance = 2

	// RelevanceRuleID is a subrule whose own id contains the query.
	RelevanceRuleID Relevance = 3
)

// Result is one search hit. Results are derived per query and never stored.
type Result struct {
	Type         ResultType         `json:"type"`
	SectionID    rules.SectionID    `json:"section_id"`
	SubsectionID rules.SubsectionID `json:"subsection_id"`
	RuleID       rules.RuleID       `json:"rule_id,omitempty"`
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	Relevance    Relevance          `json:"relevance"`
}

// Search scans every subsection and subrule of the version.
//
// A subsection matches when its name or content contains the query, with
// RelevanceName if the name matched. A subrule matches when its text
// contains the query, with RelevanceRuleID if its id also contains the
// query. Results are sorted by descending relevance; equal relevance keeps
// discovery order (section, subsection, subrule). A blank query returns no
// results. Search does not modify the version.
func Search(version *rules.Version, query string) []Result {
	if version == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	match := textmatch.New(query)

	var results []Result
	for _, section := range version.Sections {
		for _, sub := range section.Subsections {
			nameMatch := match.In(sub.Name)
			if nameMatch || match.In(sub.Content) {
				relevance := RelevanceText
				if nameMatch {
					relevance = RelevanceName
				}
				results = append(results, Result{
					Type:         TypeSubsection,
					SectionID:    section.ID,
					SubsectionID: sub.ID,
					Title:        sub.Title(),
					Content:      sub.Content,
					Relevance:    relevance,
				})
			}

			for _, rule := range sub.Subrules {
				if !match.In(rule.Text) {
					continue
				}
				relevance := RelevanceText
				if match.In(string(rule.ID)) {
					relevance = RelevanceRuleID
				}
				results = append(results, Result{
					Type:         TypeRule,
					SectionID:    section.ID,
					SubsectionID: sub.ID,
					RuleID:       rule.ID,
					Title:        "Rule " + string(rule.ID),
					Content:      rule.Text,
					Relevance:    relevance,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	return results
}
