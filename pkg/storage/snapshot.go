package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/openregulatory/regsearch/pkg/dates"
	"github.com/openregulatory/regsearch/pkg/document"
)

// snapshotRecord is one document in a snapshot stream. Dates travel as their
// normalized sort keys so a snapshot round-trips without re-parsing source
// strings.
type snapshotRecord struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title,omitempty"`
	Description        string                 `json:"description,omitempty"`
	Publisher          string                 `json:"publisher,omitempty"`
	PublisherID        string                 `json:"publisher_id,omitempty"`
	Language           string                 `json:"language,omitempty"`
	Format             string                 `json:"format,omitempty"`
	Identifier         string                 `json:"identifier,omitempty"`
	Type               string                 `json:"type,omitempty"`
	DateIssued         string                 `json:"date_issued,omitempty"`
	DateModified       string                 `json:"date_modified,omitempty"`
	SourceDateIssued   string                 `json:"source_date_issued,omitempty"`
	SourceDateModified string                 `json:"source_date_modified,omitempty"`
	SourceDateValid    string                 `json:"source_date_valid,omitempty"`
	SortDate           string                 `json:"sort_date,omitempty"`
	RegulatoryTopics   string                 `json:"regulatory_topics,omitempty"`
	RelatedLegislation []document.RelatedLink `json:"related_legislation,omitempty"`
}

// Export streams every stored document to w as zstd-compressed JSON lines.
// Returns the number of documents written.
func (s *Store) Export(w io.Writer) (int, error) {
	rows, err := s.db.Query(`SELECT ` + columnList + ` FROM documents ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("reading documents for export: %w", err)
	}
	defer closeRows(rows)

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("creating compressor: %w", err)
	}

	enc := json.NewEncoder(zw)
	count := 0
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			zw.Close()
			return count, fmt.Errorf("scanning document for export: %w", err)
		}
		if err := enc.Encode(toRecord(*doc)); err != nil {
			zw.Close()
			return count, fmt.Errorf("encoding document %s: %w", doc.ID, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		zw.Close()
		return count, err
	}
	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("flushing snapshot: %w", err)
	}
	return count, nil
}

// ImportSnapshot reads a stream produced by Export and upserts every record.
// Existing documents with matching ids are overwritten; everything else in
// the store is left alone. Returns the number of documents imported.
func (s *Store) ImportSnapshot(r io.Reader) (int, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec snapshotRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return count, fmt.Errorf("decoding snapshot record: %w", err)
		}
		if _, err := s.Upsert(fromRecord(rec)); err != nil {
			return count, fmt.Errorf("importing document %s: %w", rec.ID, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading snapshot: %w", err)
	}
	return count, nil
}

func toRecord(doc document.Document) snapshotRecord {
	return snapshotRecord{
		ID:                 doc.ID,
		Title:              doc.Title,
		Description:        doc.Description,
		Publisher:          doc.Publisher,
		PublisherID:        doc.PublisherID,
		Language:           doc.Language,
		Format:             doc.Format,
		Identifier:         doc.Identifier,
		Type:               doc.Type,
		DateIssued:         doc.DateIssued.ISO(),
		DateModified:       doc.DateModified.ISO(),
		SourceDateIssued:   doc.SourceDateIssued,
		SourceDateModified: doc.SourceDateModified,
		SourceDateValid:    doc.SourceDateValid,
		SortDate:           doc.SortDate,
		RegulatoryTopics:   doc.RegulatoryTopics,
		RelatedLegislation: doc.RelatedLegislation,
	}
}

func fromRecord(rec snapshotRecord) document.Document {
	doc := document.Document{
		ID:                 rec.ID,
		Title:              rec.Title,
		Description:        rec.Description,
		Publisher:          rec.Publisher,
		PublisherID:        rec.PublisherID,
		Language:           rec.Language,
		Format:             rec.Format,
		Identifier:         rec.Identifier,
		Type:               rec.Type,
		SourceDateIssued:   rec.SourceDateIssued,
		SourceDateModified: rec.SourceDateModified,
		SourceDateValid:    rec.SourceDateValid,
		SortDate:           rec.SortDate,
		RegulatoryTopics:   rec.RegulatoryTopics,
		RelatedLegislation: rec.RelatedLegislation,
	}
	doc.DateIssued = dates.Parse(rec.DateIssued)
	doc.DateModified = dates.Parse(rec.DateModified)
	return doc
}
