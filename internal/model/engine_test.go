package model

import (
	"errors"
	"reflect"
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(catalog.New([]catalog.Row{
		{Title: "A", Genre: "Science Fiction", Overview: "Astronauts travel through a wormhole in space."},
		{Title: "B", Genre: "Science Fiction", Overview: "A crew travels through space to a distant wormhole."},
		{Title: "C", Genre: "Romance", Overview: "Two lovers meet in Paris bakery."},
		{Title: "D", Genre: "Science Fiction", Overview: "Robots rebel on a space station."},
		{Title: "E", Genre: "Comedy", Overview: "A wedding goes hilariously wrong."},
	}))
}

func titles(ns []Neighbor) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Entry.Title
	}
	return out
}

func TestRecommendRanksOverlappingTagsFirst(t *testing.T) {
	e := NewEngine(catalog.New([]catalog.Row{
		{Title: "A", Genre: "Thriller", Overview: "A detective hunts a serial killer in the city."},
		{Title: "B", Genre: "Thriller", Overview: "A detective chases a killer across the city."},
		{Title: "C", Genre: "Animation", Overview: "Talking penguins sing songs."},
	}))

	recs, err := e.Recommend("A", 2)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if got := titles(recs); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("expected [B C], got %v", got)
	}
}

func TestRecommendExcludesSelf(t *testing.T) {
	e := newTestEngine()
	for _, entry := range e.Catalog().Entries() {
		recs, err := e.Recommend(entry.Title, 4)
		if err != nil {
			t.Fatalf("Recommend(%s) failed: %v", entry.Title, err)
		}
		if len(recs) != 4 {
			t.Errorf("Recommend(%s): expected 4 results, got %d", entry.Title, len(recs))
		}
		for _, r := range recs {
			if r.Entry.ID == entry.ID {
				t.Errorf("Recommend(%s) returned itself", entry.Title)
			}
		}
	}
}

func TestRecommendAscendingDistance(t *testing.T) {
	e := newTestEngine()
	recs, err := e.Recommend("A", 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Distance < recs[i-1].Distance {
			t.Errorf("results not sorted: %f < %f", recs[i].Distance, recs[i-1].Distance)
		}
	}
	if recs[0].Entry.Title != "B" {
		t.Errorf("expected B closest to A, got %s", recs[0].Entry.Title)
	}
}

func TestRecommendSmallCatalog(t *testing.T) {
	e := newTestEngine()
	recs, err := e.Recommend("C", 15)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(recs) != 4 {
		t.Errorf("expected catalogSize-1 = 4 results, got %d", len(recs))
	}
}

func TestRecommendDeterministic(t *testing.T) {
	e := newTestEngine()
	first, _ := e.Recommend("E", 4)
	for i := 0; i < 5; i++ {
		again, _ := e.Recommend("E", 4)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, titles(first), titles(again))
		}
	}
}

func TestRecommendTiesKeepCatalogOrder(t *testing.T) {
	e := NewEngine(catalog.New([]catalog.Row{
		{Title: "Seed", Genre: "Western", Overview: "Cowboys ride."},
		{Title: "X", Genre: "Opera", Overview: "Singers sing."},
		{Title: "Y", Genre: "Ballet", Overview: "Dancers dance."},
		{Title: "Z", Genre: "Mime", Overview: "Performers gesture."},
	}))
	recs, err := e.Recommend("Seed", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(recs); !reflect.DeepEqual(got, []string{"X", "Y", "Z"}) {
		t.Errorf("expected catalog order for ties, got %v", got)
	}
}

func TestRecommendUnknownTitle(t *testing.T) {
	e := newTestEngine()
	_, err := e.Recommend("a", 3)
	if !IsUnknownTitleError(err) {
		t.Fatalf("expected UnknownTitleError, got %v", err)
	}
	if !errors.Is(err, domain.ErrUnknownTitle) {
		t.Error("UnknownTitleError should wrap domain.ErrUnknownTitle")
	}
}

func TestRecommendZeroN(t *testing.T) {
	e := newTestEngine()
	recs, err := e.Recommend("A", 0)
	if err != nil || len(recs) != 0 {
		t.Errorf("expected empty result, got %v, %v", recs, err)
	}
}
