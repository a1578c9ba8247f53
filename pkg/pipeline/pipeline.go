// Package pipeline rebuilds the document cache. A rebuild clears the store,
// then runs every configured source in sequence, upserting documents as
// they stream in, and optionally finishes with the related-legislation
// title resolver. The rebuild is not transactional: a failed run leaves
// whatever progress it made, and the next full run starts clean.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/log"
	"github.com/openregulatory/regsearch/pkg/sources"
	"github.com/openregulatory/regsearch/pkg/storage"
)

var logger = log.ForService("pipeline")

// TitleResolver is the optional post-ingestion pass.
type TitleResolver interface {
	ResolveTitles(ctx context.Context) error
}

type Builder struct {
	store    *storage.Store
	sources  []sources.Source
	resolver TitleResolver
	timeout  time.Duration
}

func NewBuilder(store *storage.Store, srcs []sources.Source, resolver TitleResolver, timeout time.Duration) *Builder {
	return &Builder{
		store:    store,
		sources:  srcs,
		resolver: resolver,
		timeout:  timeout,
	}
}

// SourceReport is the per-source breakdown of a rebuild.
type SourceReport struct {
	Name     string
	Type     string
	Inserted int
	Updated  int
	Failed   int
	Duration time.Duration
	Error    string
}

// Report summarizes one rebuild run.
type Report struct {
	Sources  []SourceReport
	Total    int
	Duration time.Duration
	Message  string
	Error    string
}

// Rebuild clears the store and re-ingests every source. Row-level failures
// are tallied, never fatal; a source-level failure is recorded and the next
// source still runs. The report always comes back, with Error set when the
// run as a whole failed.
func (b *Builder) Rebuild(ctx context.Context) Report {
	start := time.Now()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	var report Report
	if err := b.store.ClearAll(); err != nil {
		report.Duration = time.Since(start)
		report.Error = fmt.Sprintf("clearing store: %v", err)
		report.Message = "rebuild aborted: " + report.Error
		return report
	}

	for _, src := range b.sources {
		sr := b.runSource(ctx, src)
		report.Sources = append(report.Sources, sr)
		report.Total += sr.Inserted + sr.Updated
		logger.Infof("source %s done: %d inserted, %d updated, %d failed in %s",
			sr.Name, sr.Inserted, sr.Updated, sr.Failed, sr.Duration.Round(time.Millisecond))

		if ctx.Err() != nil {
			report.Duration = time.Since(start)
			report.Error = ctx.Err().Error()
			report.Message = fmt.Sprintf("rebuild stopped after %d documents: %s", report.Total, report.Error)
			return report
		}
	}

	if b.resolver != nil {
		if err := b.resolver.ResolveTitles(ctx); err != nil {
			// Resolution is an enrichment pass; its failure does not undo
			// the ingested documents.
			logger.Errorf("title resolution failed: %v", err)
		}
	}

	report.Duration = time.Since(start)
	report.Message = fmt.Sprintf("rebuilt %d documents from %d sources in %s",
		report.Total, len(b.sources), report.Duration.Round(time.Millisecond))
	return report
}

// runSource streams one source into the store. Documents are upserted the
// moment they arrive so a mid-run failure keeps everything fetched so far.
func (b *Builder) runSource(ctx context.Context, src sources.Source) SourceReport {
	sr := SourceReport{Name: src.Name(), Type: src.Type()}
	srcStart := time.Now()

	docCh := make(chan document.Document)
	errCh := make(chan error, 1)
	go func() {
		defer close(docCh)
		errCh <- src.FetchDocuments(ctx, docCh)
	}()

	for doc := range docCh {
		inserted, err := b.store.Upsert(doc)
		if err != nil {
			sr.Failed++
			logger.Warnf("source %s: dropping document %s: %v", sr.Name, doc.ID, err)
			continue
		}
		if inserted {
			sr.Inserted++
		} else {
			sr.Updated++
		}
	}

	if err := <-errCh; err != nil {
		sr.Error = err.Error()
		logger.Errorf("source %s failed: %v", sr.Name, err)
	}

	sr.Duration = time.Since(srcStart)
	return sr
}
