package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
	"github.com/actuallystonmai/movie-recommender/internal/model"
	"github.com/actuallystonmai/movie-recommender/internal/session"
	"github.com/actuallystonmai/movie-recommender/internal/suggest"
	"github.com/actuallystonmai/movie-recommender/internal/tmdb"
)

const (
	defaultRecommendCount = 15
	defaultConcurrency    = 6
	maxRecommendCount     = 50
)

type Options struct {
	RecommendCount int
	Concurrency    int
}

type Service struct {
	catalog  *catalog.Catalog
	engine   *model.Engine
	matcher  *suggest.Matcher
	fetcher  tmdb.Fetcher
	sessions session.Store
	opts     Options
}

func NewService(engine *model.Engine, matcher *suggest.Matcher, fetcher tmdb.Fetcher, sessions session.Store, opts Options) *Service {
	if opts.RecommendCount <= 0 {
		opts.RecommendCount = defaultRecommendCount
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Service{
		catalog:  engine.Catalog(),
		engine:   engine,
		matcher:  matcher,
		fetcher:  fetcher,
		sessions: sessions,
		opts:     opts,
	}
}

func (s *Service) CatalogSize() int {
	return s.catalog.Len()
}

func (s *Service) RecommendCount() int {
	return s.opts.RecommendCount
}

// Suggest returns fuzzy title matches. An exact title short-circuits to none.
func (s *Service) Suggest(query string) []suggest.Suggestion {
	if query == "" || s.matcher.IsExact(query) {
		return nil
	}
	return s.matcher.Suggest(query)
}

func (s *Service) IsExact(title string) bool {
	return s.matcher.IsExact(title)
}

// Recommend returns up to n titles nearest to title.
func (s *Service) Recommend(title string, n int) ([]domain.ScoredRecommendation, error) {
	if n > maxRecommendCount {
		n = maxRecommendCount
	}
	start := time.Now()
	neighbors, err := s.engine.Recommend(title, n)
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	recs := make([]domain.ScoredRecommendation, len(neighbors))
	for i, nb := range neighbors {
		recs[i] = domain.ScoredRecommendation{
			ID:       nb.Entry.ID,
			Title:    nb.Entry.Title,
			Distance: nb.Distance,
		}
	}
	return recs, nil
}

func (s *Service) Fetch(ctx context.Context, title string) (domain.DisplayMovie, error) {
	return s.fetcher.Fetch(ctx, title)
}

// FetchBatch resolves titles concurrently, at most Concurrency at a time.
// The result keeps the input order; any failed lookup becomes a not-found
// placeholder so one bad title never sinks the batch.
func (s *Service) FetchBatch(ctx context.Context, titles []string) []domain.DisplayMovie {
	results := make([]domain.DisplayMovie, len(titles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, title := range titles {
		g.Go(func() error {
			movie, err := s.fetcher.Fetch(gctx, title)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("component", "service").
					Str("title", title).Msg("metadata lookup failed, using placeholder")
				movie = domain.NotFoundMovie(title)
			}
			results[i] = movie
			return nil
		})
	}
	g.Wait()
	return results
}

// View is everything the page needs, derived from one session state.
type View struct {
	Query        string                `json:"query"`
	Suggestions  []string              `json:"suggestions"`
	Selected     string                `json:"selected,omitempty"`
	Movies       []domain.DisplayMovie `json:"movies"`
	VisibleCount int                   `json:"visible_count"`
	TotalCount   int                   `json:"total_count"`
	HasMore      bool                  `json:"has_more"`
	Notice       session.Notice        `json:"notice,omitempty"`
}

func (s *Service) loadState(ctx context.Context, sessionID string) session.State {
	st, _, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("component", "service").Msg("session load failed, starting fresh")
		return session.New()
	}
	return st
}

func (s *Service) saveState(ctx context.Context, sessionID string, st session.State) error {
	if err := s.sessions.Save(ctx, sessionID, st); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// HandleSearch applies a submitted query to the session.
func (s *Service) HandleSearch(ctx context.Context, sessionID, query string) (session.State, error) {
	query = strings.TrimSpace(query)
	st := session.Search(s.loadState(ctx, sessionID), query, s.matcher.IsExact(query))
	metrics.SessionEvents.WithLabelValues("search", string(st.Notice)).Inc()
	return st, s.saveState(ctx, sessionID, st)
}

// HandleSuggestion selects a suggested title. A title no longer in the
// catalog behaves like a non-matching search.
func (s *Service) HandleSuggestion(ctx context.Context, sessionID, title string) (session.State, error) {
	prev := s.loadState(ctx, sessionID)
	var st session.State
	if s.matcher.IsExact(title) {
		st = session.ClickSuggestion(prev, title)
	} else {
		st = session.Search(prev, strings.TrimSpace(title), false)
	}
	metrics.SessionEvents.WithLabelValues("suggestion", string(st.Notice)).Inc()
	return st, s.saveState(ctx, sessionID, st)
}

// HandleShowMore reveals the next page of recommendations.
func (s *Service) HandleShowMore(ctx context.Context, sessionID string) (session.State, error) {
	prev := s.loadState(ctx, sessionID)
	if !prev.IsSelected() {
		return prev, nil
	}
	total := 0
	if recs, err := s.Recommend(prev.SelectedTitle, s.opts.RecommendCount); err == nil {
		total = len(recs)
	}
	st := session.ShowMore(prev, total)
	metrics.SessionEvents.WithLabelValues("show_more", string(st.Notice)).Inc()
	return st, s.saveState(ctx, sessionID, st)
}

// View renders the current session: suggestions for the last query, and
// metadata for the visible slice of recommendations.
func (s *Service) View(ctx context.Context, sessionID string) (*View, error) {
	return s.Render(ctx, s.loadState(ctx, sessionID))
}

// Render builds the View for st.
func (s *Service) Render(ctx context.Context, st session.State) (*View, error) {
	v := &View{
		Query:       st.Query,
		Suggestions: []string{},
		Movies:      []domain.DisplayMovie{},
		Notice:      st.Notice,
	}
	for _, sg := range s.Suggest(st.Query) {
		v.Suggestions = append(v.Suggestions, sg.Title)
	}
	if !st.IsSelected() {
		return v, nil
	}

	recs, err := s.Recommend(st.SelectedTitle, s.opts.RecommendCount)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTitle) {
			v.Notice = session.NoticeNotFound
			return v, nil
		}
		return nil, err
	}

	v.Selected = st.SelectedTitle
	v.TotalCount = len(recs)
	v.VisibleCount = st.Visible(len(recs))
	v.HasMore = st.HasMore(len(recs))

	titles := make([]string, v.VisibleCount)
	for i := range titles {
		titles[i] = recs[i].Title
	}
	v.Movies = s.FetchBatch(ctx, titles)
	return v, nil
}
