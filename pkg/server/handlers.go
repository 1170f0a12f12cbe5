package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coolbeans/mtgrules/pkg/glossary"
	"github.com/coolbeans/mtgrules/pkg/history"
	"github.com/coolbeans/mtgrules/pkg/reference"
	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"stats":  s.provider.Store().Stats(),
	})
}

type versionSummary struct {
	Key         rules.VersionKey `json:"key"`
	Name        string           `json:"name"`
	Date        string           `json:"date"`
	Label       string           `json:"version"`
	Sections    int              `json:"sections"`
	Subsections int              `json:"subsections"`
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	versions := s.provider.Store().Versions()
	out := make([]versionSummary, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionSummary{
			Key:         v.Key,
			Name:        v.Name,
			Date:        v.Date,
			Label:       v.Label,
			Sections:    len(v.Sections),
			Subsections: v.SubsectionCount(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type subsectionEntry struct {
	ID    rules.SubsectionID `json:"id"`
	Name  string             `json:"name"`
	Title string             `json:"title"`
}

type sectionEntry struct {
	ID          rules.SectionID   `json:"id"`
	Name        string            `json:"name"`
	Title       string            `json:"title"`
	Subsections []subsectionEntry `json:"subsections"`
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	version, ok := s.version(w, r)
	if !ok {
		return
	}
	out := make([]sectionEntry, 0, len(version.Sections))
	for _, section := range version.Sections {
		entry := sectionEntry{ID: section.ID, Name: section.Name, Title: section.Title()}
		for _, sub := range section.Subsections {
			entry.Subsections = append(entry.Subsections, subsectionEntry{ID: sub.ID, Name: sub.Name, Title: sub.Title()})
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

type subruleView struct {
	ID              rules.RuleID         `json:"id"`
	Text            string               `json:"text"`
	Segments        []reference.Segment  `json:"segments"`
	CrossReferences []rules.RuleID       `json:"cross_references,omitempty"`
	History         []history.RuleChange `json:"history,omitempty"`
}

type subsectionView struct {
	SectionID rules.SectionID     `json:"section_id"`
	ID        rules.SubsectionID  `json:"id"`
	Name      string              `json:"name"`
	Title     string              `json:"title"`
	Content   []reference.Segment `json:"content"`
	Subrules  []subruleView       `json:"subrules"`
	Related   []rules.RelatedRule `json:"related"`
}

func (s *Server) handleSubsection(w http.ResponseWriter, r *http.Request) {
	version, ok := s.version(w, r)
	if !ok {
		return
	}
	subID := rules.SubsectionID(chi.URLParam(r, "subsection"))
	section, ok := version.Locate(subID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("subsection %s: %w", subID, rules.ErrNotFound))
		return
	}
	sub, _ := section.Subsection(subID)

	store := s.provider.Store()
	parser := reference.NewParser()
	view := subsectionView{
		SectionID: section.ID,
		ID:        sub.ID,
		Name:      sub.Name,
		Title:     sub.Title(),
		Content:   parser.Parse(sub.Content),
		Related:   version.Related(sub),
	}
	for _, subrule := range sub.Subrules {
		view.Subrules = append(view.Subrules, subruleView{
			ID:              subrule.ID,
			Text:            subrule.Text,
			Segments:        parser.Parse(subrule.Text),
			CrossReferences: store.CrossReferences(subrule.ID),
			History:         store.History().ForRule(string(subrule.ID)),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

type location struct {
	Rule         string             `json:"rule"`
	SectionID    rules.SectionID    `json:"section_id"`
	SubsectionID rules.SubsectionID `json:"subsection_id"`
	Title        string             `json:"title"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	version, ok := s.version(w, r)
	if !ok {
		return
	}
	rule := chi.URLParam(r, "rule")
	subID, ok := rules.SubsectionOf(rule)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("rule %q: %w", rule, rules.ErrNotFound))
		return
	}
	section, ok := version.Locate(subID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("rule %q: %w", rule, rules.ErrNotFound))
		return
	}
	sub, _ := section.Subsection(subID)
	writeJSON(w, http.StatusOK, location{
		Rule:         rule,
		SectionID:    section.ID,
		SubsectionID: subID,
		Title:        sub.Title(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	version, ok := s.version(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	results := search.Search(version, query)
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

type indexHit struct {
	ID   rules.RuleID  `json:"id"`
	Text []search.Span `json:"text"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	version, ok := s.version(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	entries, err := search.NewFlatIndex(version).Search(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	trimmed := strings.TrimSpace(query)
	hits := make([]indexHit, 0, len(entries))
	for _, entry := range entries {
		hits = append(hits, indexHit{ID: entry.ID, Text: search.Highlight(entry.Text, trimmed)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query": trimmed,
		"hits":  hits,
	})
}

type refsRequest struct {
	Text     string `json:"text"`
	Glossary bool   `json:"glossary"`
}

func (s *Server) handleRefs(w http.ResponseWriter, r *http.Request) {
	var req refsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	parser := reference.NewParser()
	if req.Glossary {
		parser = reference.NewGlossaryParser()
	}
	segments := parser.Parse(req.Text)
	if segments == nil {
		segments = []reference.Segment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": segments})
}

type termView struct {
	Name       string              `json:"name"`
	Definition string              `json:"definition"`
	Segments   []reference.Segment `json:"segments"`
}

func termViews(g *glossary.Glossary, terms []glossary.Term) []termView {
	views := make([]termView, 0, len(terms))
	for _, term := range terms {
		views = append(views, termView{Name: term.Name, Definition: term.Definition, Segments: g.Segments(term)})
	}
	return views
}

func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request) {
	g := s.provider.Store().Glossary()
	query := r.URL.Query().Get("q")

	var terms []glossary.Term
	if strings.TrimSpace(query) != "" {
		var err error
		terms, err = g.Search(query)
		if errors.Is(err, glossary.ErrQueryTooShort) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	} else {
		terms = g.ByLetter(r.URL.Query().Get("letter"))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"letters": g.Letters(),
		"terms":   termViews(g, terms),
	})
}

func (s *Server) handleGlossaryTerm(w http.ResponseWriter, r *http.Request) {
	g := s.provider.Store().Glossary()
	name, err := url.PathUnescape(chi.URLParam(r, "term"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	term, ok := g.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("glossary term %q: %w", name, rules.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, termViews(g, []glossary.Term{term})[0])
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h := s.provider.Store().History()
	q := r.URL.Query()

	if rule := q.Get("rule"); rule != "" {
		changes := h.ForRule(rule)
		if changes == nil {
			changes = []history.RuleChange{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"rule": rule, "changes": changes})
		return
	}

	entries := h.Filter(q.Get("version"), q.Get("q"))
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"versions": h.Versions(),
		"entries":  entries,
	})
}
