package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/storage"
)

const dcTitlePage = `<!DOCTYPE html>
<html><head>
<meta name="DC.title" content="The Example Regulations 2020"/>
<title>browser title</title>
</head><body></body></html>`

const pageTitlePage = `<!DOCTYPE html>
<html><head><title>browser title</title></head>
<body><h1 id="pageTitle">
  Fallback Act 1999
</h1></body></html>`

const untitledPage = `<!DOCTYPE html><html><head></head><body><p>nothing here</p></body></html>`

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"dc meta tag wins", dcTitlePage, "The Example Regulations 2020"},
		{"pageTitle fallback", pageTitlePage, "Fallback Act 1999"},
		{"no title at all", untitledPage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTitle([]byte(tt.body))
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func newStoreWithLinks(t *testing.T, links ...document.RelatedLink) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	doc := document.Document{
		ID:                 "doc-1",
		Title:              "Guidance with links",
		RelatedLegislation: links,
	}
	if _, err := store.Upsert(doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return store
}

func TestResolveTitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dcTitlePage))
	}))
	defer server.Close()

	store := newStoreWithLinks(t, document.RelatedLink{URL: server.URL})
	resolver := NewWithClient(store, server.Client())

	if err := resolver.ResolveTitles(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	doc, err := store.Get("doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(doc.RelatedLegislation) != 1 {
		t.Fatalf("links = %+v", doc.RelatedLegislation)
	}
	if doc.RelatedLegislation[0].Title != "The Example Regulations 2020" {
		t.Errorf("title = %q", doc.RelatedLegislation[0].Title)
	}
}

func TestResolveTitlesContinuesPastFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pageTitlePage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	store := newStoreWithLinks(t,
		document.RelatedLink{URL: bad.URL, Title: "Previous Title"},
		document.RelatedLink{URL: good.URL},
	)
	resolver := NewWithClient(store, http.DefaultClient)

	if err := resolver.ResolveTitles(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	doc, _ := store.Get("doc-1")
	if doc.RelatedLegislation[0].Title != "Previous Title" {
		t.Errorf("failed URL should keep its previous title, got %q", doc.RelatedLegislation[0].Title)
	}
	if doc.RelatedLegislation[1].Title != "Fallback Act 1999" {
		t.Errorf("good URL title = %q", doc.RelatedLegislation[1].Title)
	}
}
