// Package sources defines the adapter contract for upstream regulatory data
// feeds and the registry through which adapters self-register. Each adapter
// knows how to fetch one kind of feed, map its records onto the canonical
// document shape and stream them out for ingestion.
package sources

import (
	"context"

	"github.com/openregulatory/regsearch/pkg/document"
)

// Source is one configured upstream feed. Type identifies the adapter kind
// (e.g. "legislation"), Name the configured instance ("regulations",
// "barriers"); two instances of the same type fetch different feeds with
// different settings.
type Source interface {
	// Type returns the adapter kind identifier used for registration and
	// configuration matching.
	Type() string

	// Name returns the configured instance name. Shown in logs and rebuild
	// reports.
	Name() string

	// FetchDocuments retrieves the feed and streams canonical documents.
	// Implementations must respect context cancellation and send documents
	// as soon as they are mapped; the caller owns the channel and closes it.
	//
	// A failure on one record or one feed URL must not abort the rest: log
	// it, count it and continue. Return an error only when the whole fetch
	// is unusable.
	FetchDocuments(ctx context.Context, docCh chan<- document.Document) error

	// ConfigType returns a pointer to an empty configuration struct of the
	// type SetConfig expects. The configuration layer decodes TOML into it.
	ConfigType() interface{}

	// SetConfig updates the adapter configuration, validating it first.
	SetConfig(config interface{}) error

	// Factory creates a configured instance from this prototype.
	Factory(instanceName string, config interface{}) (Source, error)
}
