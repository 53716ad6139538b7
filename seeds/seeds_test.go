package seeds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
)

type recordingImporter struct {
	rows []catalog.Row
	err  error
}

func (r *recordingImporter) ImportRows(ctx context.Context, rows []catalog.Row) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.rows = rows
	return int64(len(rows)), nil
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSetupImportsAllRows(t *testing.T) {
	path := writeCSV(t, "id,title,genre,overview\n"+
		"1,Alien,Horror,A creature hunts a crew.\n"+
		"2,Untitled,,No genre.\n")
	imp := &recordingImporter{}
	if err := Setup(context.Background(), imp, path); err != nil {
		t.Fatal(err)
	}
	if len(imp.rows) != 2 {
		t.Fatalf("expected both rows imported, got %d", len(imp.rows))
	}
	if imp.rows[0].Title != "Alien" || imp.rows[1].Genre != "" {
		t.Errorf("unexpected rows %+v", imp.rows)
	}
}

func TestSetupErrors(t *testing.T) {
	ctx := context.Background()
	if err := Setup(ctx, &recordingImporter{}, filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Setup(ctx, &recordingImporter{}, writeCSV(t, "id,title\n1,Alien\n")); err == nil {
		t.Error("expected error for missing columns")
	}
	if err := Setup(ctx, &recordingImporter{}, writeCSV(t, "title,genre,overview\n")); err == nil {
		t.Error("expected error for empty file")
	}

	failing := &recordingImporter{err: errors.New("copy failed")}
	if err := Setup(ctx, failing, writeCSV(t, "title,genre,overview\nAlien,Horror,Crew.\n")); err == nil {
		t.Error("expected import error to propagate")
	}
}
