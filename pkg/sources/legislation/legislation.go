// Package legislation ingests documents from the legislation registry. The
// registry serves one Dublin Core XML document per URL; the adapter walks a
// configured seed list, extracts the metadata elements and maps them onto
// the canonical document shape.
package legislation

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openregulatory/regsearch/pkg/dates"
	"github.com/openregulatory/regsearch/pkg/docid"
	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/log"
	"github.com/openregulatory/regsearch/pkg/sources"
)

func init() {
	prototype := &Source{}
	sources.RegisterPrototype("legislation", prototype)
}

var logger = log.ForService("legislation")

const (
	dcNamespace  = "http://purl.org/dc/elements/1.1/"
	dctNamespace = "http://purl.org/dc/terms/"

	// Substituted when a registry document omits a metadata element.
	missingValue = "key not found"

	defaultLanguage = "eng"
	documentType    = "Legislation"
)

// metadataFields maps canonical field names to the namespaced XML elements
// carrying them. Fixed at construction; never mutated per document.
var metadataFields = map[string]xml.Name{
	"identifier":  {Space: dcNamespace, Local: "identifier"},
	"title":       {Space: dcNamespace, Local: "title"},
	"description": {Space: dcNamespace, Local: "description"},
	"format":      {Space: dcNamespace, Local: "format"},
	"language":    {Space: dcNamespace, Local: "language"},
	"publisher":   {Space: dcNamespace, Local: "publisher"},
	"modified":    {Space: dcNamespace, Local: "modified"},
	"valid":       {Space: dctNamespace, Local: "valid"},
}

type Config struct {
	URLs []string `toml:"urls"`
}

func (c *Config) Validate() error {
	if len(c.URLs) == 0 {
		return fmt.Errorf("at least one registry URL must be configured")
	}
	return nil
}

type Source struct {
	config       *Config
	client       *http.Client
	instanceName string
}

func (s *Source) Type() string { return "legislation" }

func (s *Source) Name() string { return s.instanceName }

func (s *Source) ConfigType() interface{} { return &Config{} }

func (s *Source) SetConfig(config interface{}) error {
	cfg, ok := config.(*Config)
	if !ok {
		return fmt.Errorf("invalid config type for legislation source")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.config = cfg
	return nil
}

func (s *Source) Factory(instanceName string, config interface{}) (sources.Source, error) {
	src := &Source{
		instanceName: instanceName,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
	if err := src.SetConfig(config); err != nil {
		return nil, err
	}
	return src, nil
}

// FetchDocuments walks the seed list. A URL that fails is logged and
// skipped; the remaining URLs are still processed. The closing tally
// separates URLs that returned no data from URLs whose payload failed to
// parse.
func (s *Source) FetchDocuments(ctx context.Context, docCh chan<- document.Document) error {
	total := 0
	failed := 0
	errored := 0

	for _, url := range s.config.URLs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		total++
		body, err := sources.Fetch(ctx, s.client, url, nil)
		if err != nil {
			failed++
			logger.Warnf("no data from %s: %v", url, err)
			continue
		}

		meta, err := extractMetadata(body)
		if err != nil {
			errored++
			logger.Warnf("skipping %s: %v", url, err)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case docCh <- *mapDocument(meta):
		}
	}

	logger.Infof("registry fetch complete: %d total, %d failed, %d errored", total, failed, errored)
	return nil
}

// extractMetadata collects the text of the first occurrence of each known
// metadata element. Missing elements get the sentinel value.
func extractMetadata(body []byte) (map[string]string, error) {
	meta := make(map[string]string, len(metadataFields))

	decoder := xml.NewDecoder(bytes.NewReader(body))
	var current string
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = ""
			for field, name := range metadataFields {
				if t.Name == name {
					if _, seen := meta[field]; !seen {
						current = field
					}
					break
				}
			}
		case xml.CharData:
			if current != "" {
				meta[current] = strings.TrimSpace(string(t))
			}
		case xml.EndElement:
			current = ""
		}
	}

	if len(meta) == 0 {
		return nil, fmt.Errorf("no metadata elements found")
	}

	for field := range metadataFields {
		if _, ok := meta[field]; !ok {
			meta[field] = missingValue
		}
	}
	return meta, nil
}

func mapDocument(meta map[string]string) *document.Document {
	doc := &document.Document{
		Title:              meta["title"],
		Description:        blankIfMissing(meta["description"]),
		Format:             blankIfMissing(meta["format"]),
		Language:           meta["language"],
		Publisher:          meta["publisher"],
		Identifier:         meta["identifier"],
		Type:               documentType,
		SourceDateModified: blankIfMissing(meta["modified"]),
		SourceDateValid:    blankIfMissing(meta["valid"]),
	}

	if doc.Language == missingValue || doc.Language == "" {
		doc.Language = defaultLanguage
	}

	if meta["identifier"] != missingValue && meta["identifier"] != "" {
		doc.ID = docid.FromIdentifier(meta["identifier"])
	} else {
		doc.ID = docid.Random()
	}

	doc.PublisherID = document.PublisherID(doc.Publisher)
	doc.DateModified = dates.Parse(doc.SourceDateModified)
	doc.ComputeSortDate()
	return doc
}

func blankIfMissing(value string) string {
	if value == missingValue {
		return ""
	}
	return value
}
