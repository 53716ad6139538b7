package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/handler"
	"github.com/actuallystonmai/movie-recommender/internal/model"
	"github.com/actuallystonmai/movie-recommender/internal/service"
	"github.com/actuallystonmai/movie-recommender/internal/session"
	"github.com/actuallystonmai/movie-recommender/internal/suggest"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(ctx context.Context, title string) (domain.DisplayMovie, error) {
	return domain.NotFoundMovie(title), nil
}

func newTestRouter(opts Options) http.Handler {
	c := catalog.New([]catalog.Row{
		{Title: "Alien", Genre: "Horror", Overview: "A deadly creature stalks a crew in space."},
		{Title: "Aliens", Genre: "Action", Overview: "Marines fight a deadly creature in space."},
		{Title: "Heat", Genre: "Crime", Overview: "A detective hunts a crew of thieves."},
	})
	svc := service.NewService(
		model.NewEngine(c),
		suggest.NewMatcher(c.Titles(), 5, 0.4),
		nopFetcher{},
		session.NewMemoryStore(session.DefaultTTL),
		service.Options{RecommendCount: 15, Concurrency: 2},
	)
	return Setup(handler.NewHandler(svc), opts)
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(Options{CORSOrigins: []string{"*"}})
	tests := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodPost, "/search", http.StatusSeeOther},
		{http.MethodPost, "/more", http.StatusSeeOther},
		{http.MethodGet, "/api/suggest?q=Alein", http.StatusOK},
		{http.MethodGet, "/api/recommendations?title=Alien", http.StatusOK},
		{http.MethodGet, "/api/recommendations?title=Nope", http.StatusNotFound},
		{http.MethodGet, "/api/movies/metadata?title=Heat", http.StatusOK},
		{http.MethodGet, "/api/session", http.StatusOK},
		{http.MethodGet, "/search", http.StatusMethodNotAllowed},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestHealthCheckFailing(t *testing.T) {
	r := newTestRouter(Options{Checks: map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "redis") {
		t.Errorf("expected failing check named, got %s", rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(Options{RateLimit: 2})
	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/suggest?q=Heat", nil))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 on third request, got %d", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(Options{CORSOrigins: []string{"https://example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/suggest", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}
