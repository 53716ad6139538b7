// Package seeds loads the movie catalog CSV into PostgreSQL.
package seeds

import (
	"context"
	"fmt"
	"os"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
)

// Importer stores raw catalog rows, replacing what was there.
type Importer interface {
	ImportRows(ctx context.Context, rows []catalog.Row) (int64, error)
}

// Setup reads the CSV at path and imports every row, usable or not, so the
// database mirrors the file and the catalog applies the same filtering.
func Setup(ctx context.Context, repo Importer, path string) error {
	log := logging.With("seed")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	log.Info().Str("path", path).Msg("reading catalog csv")
	rows, err := catalog.ReadCSV(ctx, f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("read %s: no rows", path)
	}

	log.Info().Int("rows", len(rows)).Msg("importing movies")
	n, err := repo.ImportRows(ctx, rows)
	if err != nil {
		return fmt.Errorf("import movies: %w", err)
	}

	log.Info().Int64("rows", n).Msg("seeding complete")
	return nil
}
