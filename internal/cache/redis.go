package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
	"github.com/actuallystonmai/movie-recommender/internal/session"
	"github.com/actuallystonmai/movie-recommender/internal/tmdb"
)

const (
	defaultMetadataTTL = 24 * time.Hour
	defaultSessionTTL  = 2 * time.Hour
)

// Connect parses url, builds a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func metadataKey(title string) string {
	return fmt.Sprintf("meta:title:%s", title)
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// MetadataCache memoizes a Fetcher by title. Only answered lookups
// (found or not) are stored; LookupErrors pass through uncached.
type MetadataCache struct {
	client *redis.Client
	next   tmdb.Fetcher
	ttl    time.Duration
}

func NewMetadataCache(client *redis.Client, next tmdb.Fetcher, ttl time.Duration) *MetadataCache {
	if ttl <= 0 {
		ttl = defaultMetadataTTL
	}
	return &MetadataCache{client: client, next: next, ttl: ttl}
}

func (c *MetadataCache) Fetch(ctx context.Context, title string) (domain.DisplayMovie, error) {
	log := logging.With("cache")

	cached, found, err := c.Get(ctx, title)
	if err != nil {
		log.Warn().Err(err).Str("title", title).Msg("metadata cache get failed")
	}
	if found {
		metrics.CacheHits.WithLabelValues("metadata").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("metadata").Inc()

	movie, err := c.next.Fetch(ctx, title)
	if err != nil {
		return domain.DisplayMovie{}, err
	}
	if err := c.Set(ctx, title, movie); err != nil {
		log.Warn().Err(err).Str("title", title).Msg("metadata cache set failed")
	}
	return movie, nil
}

// Get returns the cached movie for title and whether it was present.
func (c *MetadataCache) Get(ctx context.Context, title string) (domain.DisplayMovie, bool, error) {
	key := metadataKey(title)
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DisplayMovie{}, false, nil
	}
	if err != nil {
		return domain.DisplayMovie{}, false, fmt.Errorf("get %s: %w", key, err)
	}

	var movie domain.DisplayMovie
	if err := json.Unmarshal([]byte(val), &movie); err != nil {
		return domain.DisplayMovie{}, false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return movie, true, nil
}

func (c *MetadataCache) Set(ctx context.Context, title string, movie domain.DisplayMovie) error {
	val, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := c.client.Set(ctx, metadataKey(title), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set metadata for %q: %w", title, err)
	}
	return nil
}

// Clear drops every cached metadata entry.
func (c *MetadataCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "meta:title:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// SessionStore keeps UI session state in Redis with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Store = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, id string) (session.State, bool, error) {
	key := sessionKey(id)
	val, err := s.client.GetEx(ctx, key, s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return session.New(), false, nil
	}
	if err != nil {
		return session.New(), false, fmt.Errorf("get %s: %w", key, err)
	}

	var st session.State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return session.New(), false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return st, true, nil
}

func (s *SessionStore) Save(ctx context.Context, id string, st session.State) error {
	val, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(id), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// Ping reports whether the Redis server answers.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
