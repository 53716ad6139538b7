package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
)

// Row is one raw movie record. Empty fields count as missing.
type Row struct {
	Title    string
	Genre    string
	Overview string
}

func (r Row) usable() bool {
	return strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.Genre) != "" &&
		strings.TrimSpace(r.Overview) != ""
}

// RowSource yields raw rows in source order.
type RowSource interface {
	Rows(ctx context.Context) ([]Row, error)
}

type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func IsLoadError(err error) bool {
	var target *LoadError
	return errors.As(err, &target)
}

// Catalog is the immutable, ordered set of usable movies. Safe for
// concurrent reads.
type Catalog struct {
	entries []domain.CatalogEntry
	byTitle map[string]int
}

// New builds a catalog from rows, dropping unusable rows and later
// duplicates of a title.
func New(rows []Row) *Catalog {
	c := &Catalog{
		entries: make([]domain.CatalogEntry, 0, len(rows)),
		byTitle: make(map[string]int, len(rows)),
	}
	dropped, dupes := 0, 0
	for _, r := range rows {
		if !r.usable() {
			dropped++
			continue
		}
		title := strings.TrimSpace(r.Title)
		if _, ok := c.byTitle[title]; ok {
			dupes++
			continue
		}
		id := len(c.entries)
		c.entries = append(c.entries, domain.CatalogEntry{
			ID:    id,
			Title: title,
			Tags:  BuildTags(r.Genre, r.Overview),
		})
		c.byTitle[title] = id
	}
	if dropped > 0 || dupes > 0 {
		logging.Debug().Str("component", "catalog").
			Int("incomplete", dropped).Int("duplicate_titles", dupes).
			Msg("skipped catalog rows")
	}
	return c
}

// BuildTags joins genre and overview with a space so the last genre word
// and the first overview word stay separate tokens.
func BuildTags(genre, overview string) string {
	return strings.TrimSpace(genre) + " " + strings.TrimSpace(overview)
}

// Load reads all rows from src and builds the catalog. No usable rows is a
// LoadError.
func Load(ctx context.Context, name string, src RowSource) (*Catalog, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	c := New(rows)
	if c.Len() == 0 {
		return nil, &LoadError{Source: name, Err: domain.ErrEmptyCatalog}
	}
	logging.Info().Str("component", "catalog").Str("source", name).
		Int("rows", len(rows)).Int("entries", c.Len()).
		Msg("catalog loaded")
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the entries in catalog order. Callers must not modify it.
func (c *Catalog) Entries() []domain.CatalogEntry {
	return c.entries
}

func (c *Catalog) Entry(id int) domain.CatalogEntry {
	return c.entries[id]
}

// Lookup is an exact, case-sensitive title match.
func (c *Catalog) Lookup(title string) (domain.CatalogEntry, bool) {
	id, ok := c.byTitle[title]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return c.entries[id], true
}

// Titles returns a fresh slice of titles in catalog order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.entries))
	for i, e := range c.entries {
		titles[i] = e.Title
	}
	return titles
}

// Tags returns the tag text of every entry in catalog order.
func (c *Catalog) Tags() []string {
	tags := make([]string, len(c.entries))
	for i, e := range c.entries {
		tags[i] = e.Tags
	}
	return tags
}
