package tmdb

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
)

// BreakerFetcher stops calling the API after repeated failures so a dead
// upstream turns into fast placeholders instead of a page of timeouts.
// Not-found answers count as successes. Lookups abandoned by their caller
// are not held against the upstream.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[domain.DisplayMovie]
}

type BreakerSettings struct {
	Name        string
	MinRequests uint32
	FailureRate float64
	OpenTimeout time.Duration
}

func NewBreakerFetcher(next Fetcher, s BreakerSettings) *BreakerFetcher {
	if s.Name == "" {
		s.Name = "tmdb-search"
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRate <= 0 {
		s.FailureRate = 0.6
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	log := logging.With("tmdb")
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[domain.DisplayMovie](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		IsSuccessful: func(err error) bool {
			var gone *callerGoneError
			return err == nil || errors.As(err, &gone)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &BreakerFetcher{next: next, cb: cb}
}

// callerGoneError marks a failure caused by the caller's own context ending.
type callerGoneError struct{ err error }

func (e *callerGoneError) Error() string { return e.err.Error() }
func (e *callerGoneError) Unwrap() error { return e.err }

func (b *BreakerFetcher) Fetch(ctx context.Context, title string) (domain.DisplayMovie, error) {
	if err := ctx.Err(); err != nil {
		return domain.DisplayMovie{}, &LookupError{Title: title, Err: err}
	}
	movie, err := b.cb.Execute(func() (domain.DisplayMovie, error) {
		m, err := b.next.Fetch(ctx, title)
		if err != nil && ctx.Err() != nil {
			return m, &callerGoneError{err: err}
		}
		return m, err
	})
	if err != nil {
		var gone *callerGoneError
		if errors.As(err, &gone) {
			err = gone.err
		}
		if IsLookupError(err) {
			return domain.DisplayMovie{}, err
		}
		return domain.DisplayMovie{}, &LookupError{Title: title, Err: err}
	}
	return movie, nil
}

func (b *BreakerFetcher) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
