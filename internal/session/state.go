// Package session holds the per-visitor UI state machine.
//
// A session is Idle (no selection) or Selected(title, visibleCount).
// Transitions are pure functions; the page is rendered from the
// resulting State alone.
package session

// PageSize is how many recommendations each reveal step adds.
const PageSize = 6

type Notice string

const (
	NoticeNone     Notice = ""
	NoticeNotFound Notice = "not_found"
	NoticePrompt   Notice = "prompt"
)

// State is persisted between requests. Query and Notice are display-only.
type State struct {
	SelectedTitle string `json:"selected_title,omitempty"`
	VisibleCount  int    `json:"visible_count"`
	Query         string `json:"query,omitempty"`
	Notice        Notice `json:"notice,omitempty"`
}

// New returns the Idle state a fresh session starts in.
func New() State {
	return State{VisibleCount: PageSize, Notice: NoticePrompt}
}

func (s State) IsSelected() bool {
	return s.SelectedTitle != ""
}

// Search applies a submitted query. exact reports whether the query is a
// catalog title as typed.
//
//	exact match          -> Selected(query, 6)
//	empty query          -> Idle with the prompt
//	anything else        -> Idle with not-found; suggestions may still follow
func Search(s State, query string, exact bool) State {
	switch {
	case query == "":
		return State{VisibleCount: PageSize, Notice: NoticePrompt}
	case exact:
		return State{SelectedTitle: query, VisibleCount: PageSize, Query: query}
	default:
		return State{VisibleCount: PageSize, Query: query, Notice: NoticeNotFound}
	}
}

// ClickSuggestion selects title and always resets the page to the first six.
func ClickSuggestion(s State, title string) State {
	if title == "" {
		return s
	}
	return State{SelectedTitle: title, VisibleCount: PageSize, Query: s.Query}
}

// ShowMore reveals another page, capped at total. It is a no-op when idle
// or when everything is already visible.
func ShowMore(s State, total int) State {
	if !s.IsSelected() || s.VisibleCount >= total {
		return s
	}
	s.VisibleCount = min(s.VisibleCount+PageSize, total)
	return s
}

// HasMore reports whether a show-more click would change anything.
func (s State) HasMore(total int) bool {
	return s.IsSelected() && s.VisibleCount < total
}

// Visible returns how many of total results are shown.
func (s State) Visible(total int) int {
	return min(s.VisibleCount, total)
}
