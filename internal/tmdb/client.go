// Package tmdb resolves movie titles to display metadata through the TMDB
// search endpoint.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
)

// Fetcher resolves one title. An empty result set is a normal
// Found=false movie, not an error.
type Fetcher interface {
	Fetch(ctx context.Context, title string) (domain.DisplayMovie, error)
}

type LookupError struct {
	Title string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("metadata lookup for %q: %v", e.Title, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func IsLookupError(err error) bool {
	var target *LookupError
	return errors.As(err, &target)
}

type Config struct {
	BaseURL      string
	ImageBaseURL string
	APIKey       string
	Timeout      time.Duration
}

type Client struct {
	baseURL   string
	imageBase string
	apiKey    string
	timeout   time.Duration
	http      *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:    cfg.APIKey,
		timeout:   cfg.Timeout,
		http:      &http.Client{},
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title       string   `json:"title"`
	PosterPath  *string  `json:"poster_path"`
	VoteAverage *float64 `json:"vote_average"`
	ReleaseDate *string  `json:"release_date"`
	Overview    *string  `json:"overview"`
}

// Fetch performs one search call bounded by the client timeout. No retries.
func (c *Client) Fetch(ctx context.Context, title string) (domain.DisplayMovie, error) {
	start := time.Now()
	movie, err := c.search(ctx, title)
	metrics.MetadataLookupDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.MetadataLookups.WithLabelValues("error").Inc()
		return domain.DisplayMovie{}, &LookupError{Title: title, Err: err}
	case movie.Found:
		metrics.MetadataLookups.WithLabelValues("found").Inc()
	default:
		metrics.MetadataLookups.WithLabelValues("not_found").Inc()
	}
	return movie, nil
}

func (c *Client) search(ctx context.Context, title string) (domain.DisplayMovie, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/movie?"+q.Encode(), nil)
	if err != nil {
		return domain.DisplayMovie{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// the request URL carries the api key; keep it out of the error
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return domain.DisplayMovie{}, fmt.Errorf("search request: %w", uerr.Err)
		}
		return domain.DisplayMovie{}, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.DisplayMovie{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.DisplayMovie{}, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Results) == 0 {
		return domain.NotFoundMovie(title), nil
	}
	return c.toDisplay(title, body.Results[0]), nil
}

func (c *Client) toDisplay(query string, r searchResult) domain.DisplayMovie {
	m := domain.DisplayMovie{
		Title:       r.Title,
		Rating:      r.VoteAverage,
		ReleaseDate: nonEmpty(r.ReleaseDate),
		Overview:    nonEmpty(r.Overview),
		Found:       true,
	}
	if m.Title == "" {
		m.Title = query
	}
	if p := nonEmpty(r.PosterPath); p != nil {
		poster := c.imageBase + *p
		m.PosterURL = &poster
	}
	return m
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
