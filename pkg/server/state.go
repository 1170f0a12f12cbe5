package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coolbeans/mtgrules/pkg/navigate"
	"github.com/coolbeans/mtgrules/pkg/rules"
	"github.com/coolbeans/mtgrules/pkg/search"
)

// Event names accepted by POST /api/state/{event}.
const (
	EventNavigate    = "navigate"
	EventSelect      = "select"
	EventResult      = "result"
	EventToggle      = "toggle"
	EventQuery       = "query"
	EventVersion     = "version"
	EventReset       = "reset"
	EventShowSection = "show-section"
)

// StateRequest carries the client's current State and the event argument.
type StateRequest struct {
	State      navigate.State     `json:"state"`
	Rule       string             `json:"rule,omitempty"`
	Section    rules.SectionID    `json:"section,omitempty"`
	Subsection rules.SubsectionID `json:"subsection,omitempty"`
	Query      string             `json:"query,omitempty"`
	Version    string             `json:"version,omitempty"`
	Result     *search.Result     `json:"result,omitempty"`
}

// StateResponse is the next State with what a client needs to draw it.
type StateResponse struct {
	State       navigate.State      `json:"state"`
	Effect      navigate.Effect     `json:"effect"`
	Breadcrumbs []navigate.Crumb    `json:"breadcrumbs"`
	Current     *rules.Subsection   `json:"current,omitempty"`
	Related     []rules.RelatedRule `json:"related,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	nav := navigate.New(s.provider.Store(), s.logger)
	state := req.State

	var (
		next   navigate.State
		effect navigate.Effect
	)
	switch event := chi.URLParam(r, "event"); event {
	case EventNavigate:
		next, effect = nav.Navigate(state, req.Rule)
	case EventSelect:
		next, effect = nav.SelectSubsection(state, req.Section, req.Subsection)
	case EventResult:
		if req.Result == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("result event requires a result"))
			return
		}
		next, effect = nav.SelectResult(state, *req.Result)
	case EventToggle:
		next, effect = nav.ToggleSection(state, req.Section)
	case EventQuery:
		next, effect = nav.UpdateQuery(state, req.Query)
	case EventVersion:
		key, err := rules.ParseVersionKey(req.Version)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		next, effect = nav.ChangeVersion(state, key)
	case EventReset:
		next, effect = nav.Reset(state)
	case EventShowSection:
		next, effect = nav.ShowSection(state, req.Section)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown event %q", event))
		return
	}

	writeJSON(w, http.StatusOK, StateResponse{
		State:       next,
		Effect:      effect,
		Breadcrumbs: nav.Breadcrumbs(next),
		Current:     nav.Current(next),
		Related:     nav.Related(next),
	})
}
