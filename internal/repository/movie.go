package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
)

// Rows returns every stored movie in insertion order. NULL columns come
// back empty, which the catalog treats as missing.
func (r *Repository) Rows(ctx context.Context) ([]catalog.Row, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT title, genre, overview
		FROM movies
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	var items []catalog.Row
	for rows.Next() {
		var title, genre, overview *string
		if err := rows.Scan(&title, &genre, &overview); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		items = append(items, catalog.Row{
			Title:    deref(title),
			Genre:    deref(genre),
			Overview: deref(overview),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over movies: %w", err)
	}
	return items, nil
}

// Count total movies
func (r *Repository) CountMovies(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return total, nil
}

// ImportRows replaces the table contents with rows, keeping their order.
// Empty fields are stored as NULL.
func (r *Repository) ImportRows(ctx context.Context, rows []catalog.Row) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE movies RESTART IDENTITY`); err != nil {
		return 0, fmt.Errorf("truncate movies: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"movies"},
		[]string{"title", "genre", "overview"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{nullable(rows[i].Title), nullable(rows[i].Genre), nullable(rows[i].Overview)}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy movies: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
