package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actuallystonmai/movie-recommender/internal/cache"
	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/config"
	"github.com/actuallystonmai/movie-recommender/internal/handler"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
	"github.com/actuallystonmai/movie-recommender/internal/model"
	"github.com/actuallystonmai/movie-recommender/internal/repository"
	"github.com/actuallystonmai/movie-recommender/internal/router"
	"github.com/actuallystonmai/movie-recommender/internal/service"
	"github.com/actuallystonmai/movie-recommender/internal/session"
	"github.com/actuallystonmai/movie-recommender/internal/suggest"
	"github.com/actuallystonmai/movie-recommender/internal/tmdb"
	"github.com/actuallystonmai/movie-recommender/seeds"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := ""
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "", "serve", "migrate-down", "seed":
	default:
		logging.Fatal().Str("command", command).Msg("unknown command; expected serve, seed or migrate-down")
	}

	// ------------ PostgreSQL ---------------
	var pool *pgxpool.Pool
	if command == "migrate-down" || command == "seed" || cfg.Catalog.Source == "postgres" {
		pool, err = connectDB(ctx, cfg.Database)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		// ------------ Run Migrations ---------------
		if command == "migrate-down" {
			if err := migrateDown(ctx, pool); err != nil {
				logging.Fatal().Err(err).Msg("failed to migrate down")
			}
			return
		}
		if err := migrateUp(ctx, pool); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate up")
		}

		// ------------ Setup Seed Data ---------------
		repo := repository.New(pool)
		if command == "seed" {
			if err := seeds.Setup(ctx, repo, cfg.Catalog.Path); err != nil {
				logging.Fatal().Err(err).Msg("failed to seed")
			}
			if cfg.CacheEnabled() {
				if err := clearMetadataCache(ctx, cfg); err != nil {
					logging.Fatal().Err(err).Msg("failed to clear metadata cache")
				}
			}
			return
		}
		if err := checkSeed(ctx, repo, cfg.Catalog.Path); err != nil {
			logging.Fatal().Err(err).Msg("failed to check seed")
		}
	}

	// ------------ Catalog + Engine ---------------
	var src catalog.RowSource = catalog.CSVSource{Path: cfg.Catalog.Path}
	if cfg.Catalog.Source == "postgres" {
		src = repository.New(pool)
	}
	cat, err := catalog.Load(ctx, cfg.Catalog.Source, src)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load catalog")
	}
	metrics.CatalogEntries.Set(float64(cat.Len()))

	start := time.Now()
	engine := model.NewEngine(cat)
	logging.Info().
		Int("movies", cat.Len()).
		Int("terms", len(engine.Index().Vocabulary())).
		Dur("took", time.Since(start)).
		Msg("text index built")

	matcher := suggest.NewMatcher(cat.Titles(), cfg.Recommend.MaxSuggestions, cfg.Recommend.SuggestionCutoff)

	// ------------ Metadata + Sessions ---------------
	if cfg.TMDB.APIKey == "" {
		logging.Warn().Msg("TMDB_API_KEY not set; metadata lookups will fail and show placeholders")
	}
	var fetcher tmdb.Fetcher = tmdb.NewBreakerFetcher(
		tmdb.NewClient(tmdb.Config{
			BaseURL:      cfg.TMDB.BaseURL,
			ImageBaseURL: cfg.TMDB.ImageBaseURL,
			APIKey:       cfg.TMDB.APIKey,
			Timeout:      cfg.TMDB.Timeout,
		}),
		tmdb.BreakerSettings{},
	)

	var sessions session.Store = session.NewMemoryStore(cfg.Redis.SessionTTL)
	checks := map[string]router.HealthCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if cfg.CacheEnabled() {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		logging.Info().Msg("connected to Redis")

		fetcher = cache.NewMetadataCache(rdb, fetcher, cfg.Redis.MetadataTTL)
		sessions = cache.NewSessionStore(rdb, cfg.Redis.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, rdb) }
	} else {
		logging.Info().Msg("REDIS_URL not set; metadata cache disabled, sessions kept in memory")
	}

	// ---------------- Server --------------------
	svc := service.NewService(engine, matcher, fetcher, sessions, service.Options{
		RecommendCount: cfg.Recommend.Count,
		Concurrency:    cfg.TMDB.Concurrency,
	})
	h := handler.NewHandler(svc).SecureCookies(cfg.Server.SecureCookies)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(h, router.Options{
			RequestTimeout:  cfg.Server.RequestTimeout,
			RateLimit:       cfg.Server.RateLimit,
			RateLimitWindow: cfg.Server.RateLimitWindow,
			CORSOrigins:     cfg.Server.CORSOrigins,
			Checks:          checks,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.PoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := waitForDB(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logging.Info().Msg("connected to PostgreSQL")
	return pool, nil
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database (max 30)")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.down.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	logging.Info().Msg("migrations dropped successfully")
	return nil
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.up.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	logging.Info().Msg("migrations applied successfully")
	return nil
}

// clearMetadataCache drops cached lookups after a re-import, since titles
// that left the catalog would otherwise linger until their TTL.
func clearMetadataCache(ctx context.Context, cfg *config.Config) error {
	rdb, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := cache.NewMetadataCache(rdb, nil, cfg.Redis.MetadataTTL).Clear(ctx); err != nil {
		return err
	}
	logging.Info().Msg("metadata cache cleared")
	return nil
}

// checkSeed imports the CSV on first start against an empty database.
func checkSeed(ctx context.Context, repo *repository.Repository, csvPath string) error {
	count, err := repo.CountMovies(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Info().Int("movies", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, repo, csvPath)
}
