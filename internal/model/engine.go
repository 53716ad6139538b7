package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

type UnknownTitleError struct {
	Title string
}

func (e *UnknownTitleError) Error() string {
	return fmt.Sprintf("unknown title %q", e.Title)
}

func (e *UnknownTitleError) Unwrap() error {
	return domain.ErrUnknownTitle
}

func IsUnknownTitleError(err error) bool {
	var target *UnknownTitleError
	return errors.As(err, &target)
}

// Neighbor is one query result.
type Neighbor struct {
	Entry    domain.CatalogEntry
	Distance float64
}

// Engine answers nearest-neighbour queries by cosine distance over the
// catalog's TF-IDF index.
type Engine struct {
	catalog *catalog.Catalog
	index   *Index
}

func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c, index: BuildIndex(c.Tags())}
}

func (e *Engine) Index() *Index {
	return e.index
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Query returns up to k entries ordered by ascending cosine distance from v.
// Equal distances keep catalog order.
func (e *Engine) Query(v Vector, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	scores := e.index.similarities(v)
	ids := make([]int, len(scores))
	dist := make([]float64, len(scores))
	for i, s := range scores {
		ids[i] = i
		d := 1 - s
		if d < 0 {
			d = 0
		}
		dist[i] = d
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := cmp.Compare(dist[a], dist[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if k > len(ids) {
		k = len(ids)
	}
	out := make([]Neighbor, k)
	for i, id := range ids[:k] {
		out[i] = Neighbor{Entry: e.catalog.Entry(id), Distance: dist[id]}
	}
	return out
}

// Recommend returns the n entries closest to title, excluding title itself.
// Small catalogs yield fewer than n results.
func (e *Engine) Recommend(title string, n int) ([]Neighbor, error) {
	entry, ok := e.catalog.Lookup(title)
	if !ok {
		return nil, &UnknownTitleError{Title: title}
	}
	if n <= 0 {
		return []Neighbor{}, nil
	}
	candidates := e.Query(e.index.Vector(entry.ID), n+1)
	out := make([]Neighbor, 0, n)
	for _, c := range candidates {
		if c.Entry.ID == entry.ID {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out, nil
}
