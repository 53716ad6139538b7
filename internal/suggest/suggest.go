// Package suggest ranks catalog titles against a partial or misspelled
// query using a character-level sequence-matcher ratio.
package suggest

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	DefaultMaxResults = 5
	DefaultCutoff     = 0.4
)

type Suggestion struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Matcher holds the title set. Titles are split into characters once.
type Matcher struct {
	titles     []string
	chars      [][]string
	exact      map[string]struct{}
	maxResults int
	cutoff     float64
}

func NewMatcher(titles []string, maxResults int, cutoff float64) *Matcher {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if cutoff < 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}
	m := &Matcher{
		titles:     titles,
		chars:      make([][]string, len(titles)),
		exact:      make(map[string]struct{}, len(titles)),
		maxResults: maxResults,
		cutoff:     cutoff,
	}
	for i, t := range titles {
		m.chars[i] = splitChars(t)
		m.exact[t] = struct{}{}
	}
	return m
}

// IsExact reports whether query is a catalog title as typed.
func (m *Matcher) IsExact(query string) bool {
	_, ok := m.exact[query]
	return ok
}

// Suggest returns up to maxResults titles whose ratio against query is at
// least the cutoff, best first. Equal scores order by descending title.
func (m *Matcher) Suggest(query string) []Suggestion {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	sm := difflib.NewMatcher(nil, nil)
	sm.SetSeq2(splitChars(query))

	var out []Suggestion
	for i, t := range m.titles {
		sm.SetSeq1(m.chars[i])
		if sm.RealQuickRatio() < m.cutoff || sm.QuickRatio() < m.cutoff {
			continue
		}
		if r := sm.Ratio(); r >= m.cutoff {
			out = append(out, Suggestion{Title: t, Score: r})
		}
	}
	slices.SortFunc(out, func(a, b Suggestion) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(b.Title, a.Title)
	})
	if len(out) > m.maxResults {
		out = out[:m.maxResults]
	}
	return out
}

// Titles is Suggest without scores.
func (m *Matcher) Titles(query string) []string {
	s := m.Suggest(query)
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Title
	}
	return out
}

// Ratio is the similarity of two strings in [0, 1].
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
