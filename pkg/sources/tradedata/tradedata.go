// Package tradedata ingests documents from the trade data API. Each
// configured instance points at one dataset version URL; the API returns a
// JSON object carrying the rows under a dataset-specific array key. The
// barriers dataset and the regulations dataset share this adapter and
// differ only in configuration.
package tradedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openregulatory/regsearch/pkg/dates"
	"github.com/openregulatory/regsearch/pkg/docid"
	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/log"
	"github.com/openregulatory/regsearch/pkg/repair"
	"github.com/openregulatory/regsearch/pkg/sources"
)

func init() {
	prototype := &Source{}
	sources.RegisterPrototype("tradedata", prototype)
}

var logger = log.ForService("tradedata")

type Config struct {
	DatasetURL string `toml:"dataset_url"`
	RowsKey    string `toml:"rows_key"`

	// DocumentType overrides the row-supplied type when the dataset has no
	// type field of its own (the barriers dataset).
	DocumentType string `toml:"document_type"`

	// Repair enables token-level reconstruction of the related_legislation
	// field for datasets that serve it as a malformed pseudo-JSON string.
	Repair bool `toml:"repair_related_legislation"`
}

func (c *Config) Validate() error {
	if c.DatasetURL == "" {
		return fmt.Errorf("dataset_url must be configured")
	}
	if c.RowsKey == "" {
		return fmt.Errorf("rows_key must be configured")
	}
	return nil
}

type Source struct {
	config       *Config
	client       *http.Client
	instanceName string
}

func (s *Source) Type() string { return "tradedata" }

func (s *Source) Name() string { return s.instanceName }

func (s *Source) ConfigType() interface{} { return &Config{} }

func (s *Source) SetConfig(config interface{}) error {
	cfg, ok := config.(*Config)
	if !ok {
		return fmt.Errorf("invalid config type for tradedata source")
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
		client:       &http.Client{Timeout: 60 * time.Second},
	}
	if err := src.SetConfig(config); err != nil {
		return nil, err
	}
	return src, nil
}

// row mirrors one dataset record. The trade data API serves every field as
// a string except regulatory_topics and related_legislation, which vary by
// dataset version, so those stay raw until mapping.
type row struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Identifier         string          `json:"identifier"`
	Publisher          string          `json:"publisher"`
	Language           string          `json:"language"`
	Format             string          `json:"format"`
	Description        string          `json:"description"`
	DateIssued         string          `json:"date_issued"`
	DateModified       string          `json:"date_modified"`
	DateValid          string          `json:"date_valid"`
	Type               string          `json:"type"`
	RegulatoryTopics   json.RawMessage `json:"regulatory_topics"`
	RelatedLegislation json.RawMessage `json:"related_legislation"`
}

// FetchDocuments fetches the dataset once and streams every row that maps
// cleanly. A row that fails is logged and skipped; the closing tally
// separates rows with unusable field values from rows that would not decode
// at all.
func (s *Source) FetchDocuments(ctx context.Context, docCh chan<- document.Document) error {
	body, err := sources.Fetch(ctx, s.client, s.config.DatasetURL, url.Values{"format": {"json"}})
	if err != nil {
		return fmt.Errorf("fetching dataset: %w", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decoding dataset response: %w", err)
	}

	rowsRaw, ok := payload[s.config.RowsKey]
	if !ok {
		return fmt.Errorf("dataset response has no %q key", s.config.RowsKey)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(rowsRaw, &records); err != nil {
		return fmt.Errorf("decoding dataset rows: %w", err)
	}

	total := 0
	failed := 0
	errored := 0
	for i, record := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		total++
		var r row
		if err := json.Unmarshal(record, &r); err != nil {
			errored++
			logger.Warnf("skipping row %d: %v", i, err)
			continue
		}
		doc, err := s.mapRow(r)
		if err != nil {
			failed++
			logger.Warnf("skipping row %d: %v", i, err)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case docCh <- *doc:
		}
	}

	logger.Infof("dataset fetch complete: %d total, %d failed, %d errored", total, failed, errored)
	return nil
}

func (s *Source) mapRow(r row) (*document.Document, error) {
	doc := &document.Document{
		Title:              r.Title,
		Description:        r.Description,
		Publisher:          r.Publisher,
		Language:           r.Language,
		Format:             r.Format,
		Identifier:         r.Identifier,
		Type:               r.Type,
		SourceDateIssued:   r.DateIssued,
		SourceDateModified: r.DateModified,
		SourceDateValid:    r.DateValid,
	}

	if doc.Language == "" {
		doc.Language = "eng"
	}
	if s.config.DocumentType != "" {
		doc.Type = s.config.DocumentType
	}

	// Rows carry no stable id of their own in most dataset versions; a
	// fresh random id per run is acceptable because rebuilds clear the
	// store first.
	if r.ID != "" {
		doc.ID = r.ID
	} else {
		doc.ID = docid.Random()
	}

	doc.PublisherID = document.PublisherID(doc.Publisher)
	doc.RegulatoryTopics = decodeTopics(r.RegulatoryTopics)

	links, err := s.decodeRelatedLegislation(r.RelatedLegislation)
	if err != nil {
		return nil, err
	}
	doc.RelatedLegislation = links

	doc.DateIssued = dates.Parse(r.DateIssued)
	doc.DateModified = dates.Parse(r.DateModified)
	doc.ComputeSortDate()
	return doc, nil
}

// decodeTopics accepts either a JSON array of topic strings or a single
// newline-delimited string, normalizing both to the canonical
// newline-delimited form.
func decodeTopics(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return document.JoinTopics(list)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	return ""
}

// decodeRelatedLegislation accepts a JSON array of link objects, a JSON
// string holding a serialized list, or (with repair enabled) the malformed
// pseudo-JSON the regulations dataset serves.
func (s *Source) decodeRelatedLegislation(raw json.RawMessage) ([]document.RelatedLink, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var links []document.RelatedLink
	if err := json.Unmarshal(raw, &links); err == nil {
		return links, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, fmt.Errorf("related_legislation is neither a list nor a string")
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}

	if s.config.Repair {
		return repair.List(str), nil
	}
	parsed, err := document.ParseRelatedLinks(str)
	if err != nil {
		return nil, fmt.Errorf("parsing related_legislation: %w", err)
	}
	return parsed, nil
}
