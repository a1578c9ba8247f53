// Package document defines the canonical document model shared by the
// ingestion pipeline and the search engine. Every upstream feed, whatever
// its native shape, is mapped into a Document before it reaches storage.
package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openregulatory/regsearch/pkg/dates"
)

// Document is the normalized representation of a regulation, guidance or
// legislation entry, independent of the feed it came from.
type Document struct {
	// ID is the primary key. Depending on the source it is a hash of the
	// lowercased source identifier, a random short key, or a key supplied
	// by the source itself. Immutable once assigned.
	ID string

	Title       string
	Description string
	Publisher   string
	// PublisherID is always derived from Publisher via PublisherID();
	// it is stored for filtering but never set independently.
	PublisherID string
	Language    string
	Format      string
	// Identifier is the source URL or URI of the document.
	Identifier string
	// Type is the document category, e.g. "Legislation". Drives the type
	// facet.
	Type string

	// DateIssued and DateModified are the normalized forms of the source
	// date strings. Nil when the source value was absent or unparseable.
	DateIssued   *dates.Date
	DateModified *dates.Date

	// Source date strings are retained verbatim for display fidelity.
	SourceDateIssued   string
	SourceDateModified string
	SourceDateValid    string

	// SortDate is the single key used for recency ordering: the validity
	// date when present, otherwise the modification date. Empty only when
	// neither is available.
	SortDate string

	// RegulatoryTopics is newline-delimited in storage; use Topics to read
	// it as a list.
	RegulatoryTopics string

	// RelatedLegislation holds links to external legislation pages. Titles
	// may be empty until the resolver back-fills them.
	RelatedLegislation []RelatedLink

	// Score is the transient relevance score for the current query. It is
	// recomputed per search and never meaningful across requests.
	Score float64
}

// RelatedLink is one entry in a document's related-legislation list.
type RelatedLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PublisherID derives the facet key for a publisher name: lowercased with
// every non-alphanumeric character stripped. Empty input yields "".
func PublisherID(publisher string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(publisher) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ComputeSortDate sets SortDate from the validity date, falling back to the
// modification date when no validity date exists. Call after the source
// date strings are populated.
func (d *Document) ComputeSortDate() {
	if key := dates.Parse(d.SourceDateValid).SortKey(); key != "" {
		d.SortDate = key
		return
	}
	if d.DateModified != nil {
		d.SortDate = d.DateModified.SortKey()
		return
	}
	d.SortDate = dates.Parse(d.SourceDateModified).SortKey()
}

// Validate checks the constraints a document must satisfy before it is
// written: a non-empty id, a publisher id consistent with the publisher,
// and related-legislation entries with non-empty URLs.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("document has no id")
	}
	if want := PublisherID(d.Publisher); d.PublisherID != want {
		return fmt.Errorf("publisher_id %q does not derive from publisher %q", d.PublisherID, d.Publisher)
	}
	for i, link := range d.RelatedLegislation {
		if strings.TrimSpace(link.URL) == "" {
			return fmt.Errorf("related legislation entry %d has no url", i)
		}
	}
	return nil
}

// Topics returns the regulatory topics as a list, splitting on newlines and
// dropping blanks.
func (d *Document) Topics() []string {
	if d.RegulatoryTopics == "" {
		return nil
	}
	var topics []string
	for _, topic := range strings.Split(d.RegulatoryTopics, "\n") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

// JoinTopics renders a topic list into the newline-delimited storage form.
func JoinTopics(topics []string) string {
	return strings.Join(topics, "\n")
}

// MarshalRelatedLinks encodes related-legislation entries as the JSON list
// stored alongside the document. An empty list encodes as "".
func MarshalRelatedLinks(links []RelatedLink) (string, error) {
	if len(links) == 0 {
		return "", nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("encoding related legislation: %w", err)
	}
	return string(data), nil
}

// ParseRelatedLinks decodes a stored or upstream related-legislation value.
// Some feeds emit the list with single quotes instead of valid JSON string
// quoting; those are tolerated. Entries without a URL are dropped.
func ParseRelatedLinks(raw string) ([]RelatedLink, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return nil, nil
	}

	var links []RelatedLink
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		repaired := strings.ReplaceAll(raw, "'", `"`)
		if err2 := json.Unmarshal([]byte(repaired), &links); err2 != nil {
			return nil, fmt.Errorf("decoding related legislation: %w", err)
		}
	}

	filtered := links[:0]
	for _, link := range links {
		if strings.TrimSpace(link.URL) != "" {
			filtered = append(filtered, link)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	return filtered, nil
}

// Displayable reports whether every entry has both a URL and a resolved
// title, the condition for rendering the related-legislation panel.
func Displayable(links []RelatedLink) bool {
	if len(links) == 0 {
		return false
	}
	for _, link := range links {
		if strings.TrimSpace(link.URL) == "" || strings.TrimSpace(link.Title) == "" {
			return false
		}
	}
	return true
}
