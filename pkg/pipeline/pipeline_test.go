package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/sources"
	"github.com/openregulatory/regsearch/pkg/storage"
)

// fakeSource streams a fixed set of documents, optionally failing afterwards.
type fakeSource struct {
	name string
	docs []document.Document
	err  error
}

func (f *fakeSource) Type() string              { return "fake" }
func (f *fakeSource) Name() string              { return f.name }
func (f *fakeSource) ConfigType() interface{}   { return nil }
func (f *fakeSource) SetConfig(interface{}) error { return nil }
func (f *fakeSource) Factory(name string, cfg interface{}) (sources.Source, error) {
	return &fakeSource{name: name}, nil
}

func (f *fakeSource) FetchDocuments(ctx context.Context, docCh chan<- document.Document) error {
	for _, doc := range f.docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case docCh <- doc:
		}
	}
	return f.err
}

type fakeResolver struct {
	calls int
}

func (f *fakeResolver) ResolveTitles(ctx context.Context) error {
	f.calls++
	return nil
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func doc(id string) document.Document {
	return document.Document{ID: id, Title: "Document " + id}
}

func TestRebuild(t *testing.T) {
	store := newStore(t)

	// A pre-existing document must be gone after the rebuild.
	if _, err := store.Upsert(doc("stale")); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	resolver := &fakeResolver{}
	builder := NewBuilder(store, []sources.Source{
		&fakeSource{name: "alpha", docs: []document.Document{doc("a1"), doc("a2")}},
		&fakeSource{name: "beta", docs: []document.Document{doc("b1"), doc("a1")}},
	}, resolver, time.Minute)

	report := builder.Rebuild(context.Background())
	if report.Error != "" {
		t.Fatalf("rebuild error: %s", report.Error)
	}
	if report.Total != 4 {
		t.Errorf("total = %d, want 4", report.Total)
	}
	if len(report.Sources) != 2 {
		t.Fatalf("sources = %+v", report.Sources)
	}
	if report.Sources[0].Inserted != 2 {
		t.Errorf("alpha inserted = %d, want 2", report.Sources[0].Inserted)
	}
	// "a1" arrives twice; the second write is an update.
	if report.Sources[1].Inserted != 1 || report.Sources[1].Updated != 1 {
		t.Errorf("beta report = %+v", report.Sources[1])
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1", resolver.calls)
	}
	if report.Message == "" || report.Duration <= 0 {
		t.Errorf("report missing summary: %+v", report)
	}

	if got, _ := store.Get("stale"); got != nil {
		t.Error("stale document survived the rebuild")
	}
	count, _ := store.Count()
	if count != 3 {
		t.Errorf("count = %d, want 3 distinct documents", count)
	}
}

func TestRebuildRowFailureDoesNotAbort(t *testing.T) {
	store := newStore(t)

	invalid := document.Document{Title: "no id"}
	builder := NewBuilder(store, []sources.Source{
		&fakeSource{name: "mixed", docs: []document.Document{doc("ok1"), invalid, doc("ok2")}},
	}, nil, 0)

	report := builder.Rebuild(context.Background())
	if report.Error != "" {
		t.Fatalf("rebuild error: %s", report.Error)
	}
	sr := report.Sources[0]
	if sr.Inserted != 2 || sr.Failed != 1 {
		t.Errorf("report = %+v, want 2 inserted 1 failed", sr)
	}
}

func TestRebuildSourceFailureContinues(t *testing.T) {
	store := newStore(t)

	builder := NewBuilder(store, []sources.Source{
		&fakeSource{name: "broken", docs: []document.Document{doc("x")}, err: fmt.Errorf("feed unavailable")},
		&fakeSource{name: "healthy", docs: []document.Document{doc("y")}},
	}, nil, 0)

	report := builder.Rebuild(context.Background())
	if report.Error != "" {
		t.Fatalf("a single source failure must not fail the run: %s", report.Error)
	}
	if report.Sources[0].Error == "" {
		t.Error("broken source should record its error")
	}
	if report.Sources[1].Inserted != 1 {
		t.Errorf("healthy source report = %+v", report.Sources[1])
	}
	// Documents streamed before the failure are kept.
	if report.Sources[0].Inserted != 1 {
		t.Errorf("broken source partial progress = %+v", report.Sources[0])
	}
}

func TestRebuildTimeout(t *testing.T) {
	store := newStore(t)

	slow := &slowSource{}
	builder := NewBuilder(store, []sources.Source{slow}, nil, 10*time.Millisecond)

	report := builder.Rebuild(context.Background())
	if report.Error == "" {
		t.Error("expected timeout to surface in the report")
	}
}

type slowSource struct{}

func (s *slowSource) Type() string                { return "slow" }
func (s *slowSource) Name() string                { return "slow" }
func (s *slowSource) ConfigType() interface{}     { return nil }
func (s *slowSource) SetConfig(interface{}) error { return nil }
func (s *slowSource) Factory(string, interface{}) (sources.Source, error) {
	return &slowSource{}, nil
}

func (s *slowSource) FetchDocuments(ctx context.Context, docCh chan<- document.Document) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return nil
	}
}
