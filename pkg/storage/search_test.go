package storage

import (
	"testing"

	"github.com/openregulatory/regsearch/pkg/dates"
	"github.com/openregulatory/regsearch/pkg/document"
)

func seedSearchDocs(t *testing.T, store *Store) {
	t.Helper()
	docs := []struct {
		id, title, description, topics, docType, publisher, modified string
	}{
		{"d1", "Carbon emissions reporting", "How to report carbon emissions.", "Environment", "guidance", "Environment Agency", "2021-06-01"},
		{"d2", "Emissions trading scheme", "Trading allowances for emissions.", "Environment\nEnergy", "legislation", "BEIS", "2020-01-15"},
		{"d3", "Import licences for firearms", "Licensing rules for importers.", "Trade", "guidance", "Home Office", "2019-11-03"},
		{"d4", "Waste carriers", "Registering as a waste carrier.", "Environment", "guidance", "Environment Agency", ""},
	}
	for _, d := range docs {
		doc := document.Document{
			ID:                 d.id,
			Title:              d.title,
			Description:        d.description,
			RegulatoryTopics:   d.topics,
			Type:               d.docType,
			Publisher:          d.publisher,
			PublisherID:        document.PublisherID(d.publisher),
			Language:           "eng",
			SourceDateModified: d.modified,
		}
		doc.DateModified = dates.Parse(d.modified)
		doc.ComputeSortDate()
		if _, err := store.Upsert(doc); err != nil {
			t.Fatalf("seeding %s: %v", d.id, err)
		}
	}
}

func ids(docs []document.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestStrictSearch(t *testing.T) {
	store := newTestStore(t)
	seedSearchDocs(t, store)

	docs, err := store.StrictSearch(`"emissions"`, Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(docs); len(got) != 2 || got[0] != "d1" || got[1] != "d2" {
		t.Errorf("ids = %v, want [d1 d2] newest first", got)
	}
}

func TestStrictSearchBooleanExpression(t *testing.T) {
	store := newTestStore(t)
	seedSearchDocs(t, store)

	docs, err := store.StrictSearch(`"emissions" AND "trading"`, Filters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(docs); len(got) != 1 || got[0] != "d2" {
		t.Errorf("ids = %v, want [d2]", got)
	}
}

func TestStrictSearchFilters(t *testing.T) {
	store := newTestStore(t)
	seedSearchDocs(t, store)

	docs, err := store.StrictSearch(`"emissions"`, Filters{Types: []string{"legislation"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(docs); len(got) != 1 || got[0] != "d2" {
		t.Errorf("type filter: ids = %v, want [d2]", got)
	}

	docs, err = store.StrictSearch(`"emissions"`, Filters{Publishers: []string{"environmentagency"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(docs); len(got) != 1 || got[0] != "d1" {
		t.Errorf("publisher filter: ids = %v, want [d1]", got)
	}

	// Both facets together must intersect.
	docs, err = store.StrictSearch(`"emissions"`, Filters{
		Types:      []string{"guidance"},
		Publishers: []string{"beis"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("intersecting filters: ids = %v, want none", ids(docs))
	}
}

func TestFiltersMatchSubstrings(t *testing.T) {
	store := newTestStore(t)
	doc := document.Document{
		ID:          "sub1",
		Title:       "Clean air zones",
		Description: "Charging rules for clean air zones.",
		Type:        "Primary Legislation",
		Publisher:   "Environment Agency",
		PublisherID: "environmentagency",
		Language:    "eng",
	}
	if _, err := store.Upsert(doc); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	// Facet values are fragments of the stored values. "legislation" has to
	// match "Primary Legislation" and "environment" has to match
	// "environmentagency".
	docs, err := store.StrictSearch(`"clean"`, Filters{Types: []string{"legislation"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(docs); len(got) != 1 || got[0] != "sub1" {
		t.Errorf("type fragment: ids = %v, want [sub1]", got)
	}

	docs, err = store.StrictSearch(`"clean"`, Filters{Publishers: []string{"environment"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := ids(docs); len(got) != 1 || got[0] != "sub1" {
		t.Errorf("publisher fragment: ids = %v, want [sub1]", got)
	}
}

func TestPartialSearch(t *testing.T) {
	store := newTestStore(t)
	seedSearchDocs(t, store)

	// "carrier" is a prefix of "carriers"; strict token matching misses it
	// but the substring fallback finds it.
	docs, err := store.PartialSearch([]string{"carrier"}, Filters{})
	if err != nil {
		t.Fatalf("partial search: %v", err)
	}
	if got := ids(docs); len(got) != 1 || got[0] != "d4" {
		t.Errorf("ids = %v, want [d4]", got)
	}

	docs, err = store.PartialSearch(nil, Filters{})
	if err != nil {
		t.Fatalf("partial search with no terms: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("no terms should match nothing, got %v", ids(docs))
	}
}

func TestBrowseOrdersNewestFirstUndatedLast(t *testing.T) {
	store := newTestStore(t)
	seedSearchDocs(t, store)

	docs, err := store.Browse(Filters{})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	want := []string{"d1", "d2", "d3", "d4"}
	got := ids(docs)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestBrowseWithFilters(t *testing.T) {
	store := newTestStore(t)
	seedSearchDocs(t, store)

	docs, err := store.Browse(Filters{Publishers: []string{"environmentagency", "homeoffice"}})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if got := ids(docs); len(got) != 3 {
		t.Errorf("ids = %v, want d1 d3 d4", got)
	}
}
