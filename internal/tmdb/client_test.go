package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL,
		ImageBaseURL: "https://image.test/w500",
		APIKey:       "key",
		Timeout:      time.Second,
	})
}

func TestFetchMapsFirstResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "Inception" || r.URL.Query().Get("api_key") != "key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"results":[
			{"title":"Inception","poster_path":"/abc.jpg","vote_average":8.4,"release_date":"2010-07-15","overview":"Dreams."},
			{"title":"Inception 2"}]}`))
	})

	m, err := c.Fetch(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !m.Found || m.Title != "Inception" {
		t.Errorf("unexpected movie %+v", m)
	}
	if m.PosterURL == nil || *m.PosterURL != "https://image.test/w500/abc.jpg" {
		t.Errorf("unexpected poster %v", m.PosterURL)
	}
	if m.Rating == nil || *m.Rating != 8.4 {
		t.Errorf("unexpected rating %v", m.Rating)
	}
	if m.ReleaseDate == nil || *m.ReleaseDate != "2010-07-15" {
		t.Errorf("unexpected release date %v", m.ReleaseDate)
	}
}

func TestFetchToleratesMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"title":"Obscure","poster_path":null,"vote_average":0,"release_date":"","overview":""}]}`))
	})

	m, err := c.Fetch(context.Background(), "Obscure")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !m.Found {
		t.Error("expected found")
	}
	if m.PosterURL != nil || m.Overview != nil || m.ReleaseDate != nil {
		t.Errorf("expected nil optional fields, got %+v", m)
	}
}

func TestFetchEmptyResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"results":[]}`))
	})

	m, err := c.Fetch(context.Background(), "Zzyzx Nonexistent Film")
	if err != nil {
		t.Fatalf("empty result should not be an error: %v", err)
	}
	want := domain.DisplayMovie{Title: "Zzyzx Nonexistent Film", Found: false}
	if m != want {
		t.Errorf("expected %+v, got %+v", want, m)
	}
}

func TestFetchServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Fetch(context.Background(), "Inception")
	if !IsLookupError(err) {
		t.Fatalf("expected LookupError, got %v", err)
	}
}

func TestFetchBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":`))
	})

	if _, err := c.Fetch(context.Background(), "Inception"); !IsLookupError(err) {
		t.Fatalf("expected LookupError, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, ImageBaseURL: "https://image.test", APIKey: "secret-key", Timeout: 50 * time.Millisecond})

	_, err := c.Fetch(context.Background(), "Slow")
	if !IsLookupError(err) {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error leaks api key: %v", err)
	}
}

type stubFetcher struct {
	calls int
	err   error
}

func (s *stubFetcher) Fetch(ctx context.Context, title string) (domain.DisplayMovie, error) {
	s.calls++
	if s.err != nil {
		return domain.DisplayMovie{}, &LookupError{Title: title, Err: s.err}
	}
	return domain.NotFoundMovie(title), nil
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	stub := &stubFetcher{err: errors.New("connection refused")}
	b := NewBreakerFetcher(stub, BreakerSettings{Name: "test-open", MinRequests: 3, FailureRate: 0.5, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if _, err := b.Fetch(context.Background(), "A"); !IsLookupError(err) {
			t.Fatalf("call %d: expected LookupError, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	_, err := b.Fetch(context.Background(), "B")
	if !IsLookupError(err) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected LookupError wrapping ErrOpenState, got %v", err)
	}
	if stub.calls != 3 {
		t.Errorf("open breaker should not call upstream, got %d calls", stub.calls)
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
		w.Write([]byte(`{"results":[{"title":"Alien","overview":"In space.","release_date":"1979-05-25","vote_average":8.1,"poster_path":"/alien.jpg"}]}`))
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, ImageBaseURL: "https://image.test", APIKey: "key", Timeout: time.Second})
	b := NewBreakerFetcher(c, BreakerSettings{Name: "test-cancel", MinRequests: 3, FailureRate: 0.5, OpenTimeout: time.Minute})

	for i := 0; i < 12; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := b.Fetch(ctx, "Alien")
		cancel()
		if !IsLookupError(err) {
			t.Fatalf("call %d: expected LookupError, got %v", i, err)
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("call %d: breaker opened on caller timeouts", i)
		}
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Fetch(canceled, "Alien"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled lookup, got %v", err)
	}

	if b.State() != gobreaker.StateClosed {
		t.Fatalf("expected closed breaker, got %s", b.State())
	}
	m, err := b.Fetch(context.Background(), "Alien")
	if err != nil || !m.Found {
		t.Errorf("expected healthy fetch, got %+v, %v", m, err)
	}
}

func TestBreakerCountsUpstreamTimeouts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, ImageBaseURL: "https://image.test", APIKey: "key", Timeout: 20 * time.Millisecond})
	b := NewBreakerFetcher(c, BreakerSettings{Name: "test-timeout", MinRequests: 3, FailureRate: 0.5, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		if _, err := b.Fetch(context.Background(), "Slow"); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: expected deadline exceeded, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Errorf("expected open breaker, got %s", b.State())
	}
}

func TestBreakerPassesNotFound(t *testing.T) {
	stub := &stubFetcher{}
	b := NewBreakerFetcher(stub, BreakerSettings{Name: "test-pass"})

	m, err := b.Fetch(context.Background(), "Nothing")
	if err != nil || m.Found {
		t.Errorf("expected not-found movie without error, got %+v, %v", m, err)
	}
}
