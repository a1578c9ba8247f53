// Package storage persists canonical documents in SQLite and maintains the
// full-text index the search engine queries. One database file holds one
// documents table plus an FTS5 table over the searchable fields
// (title, description, regulatory topics), joined by rowid.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/openregulatory/regsearch/pkg/dates"
	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/log"
)

var logger = log.ForService("storage")

// Store wraps the document database.
type Store struct {
	db *sql.DB
}

// NewStore opens (and creates if needed) the document database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			description TEXT,
			publisher TEXT,
			publisher_id TEXT,
			language TEXT,
			format TEXT,
			identifier TEXT,
			type TEXT,
			date_issued TEXT,
			date_modified TEXT,
			source_date_issued TEXT,
			source_date_modified TEXT,
			source_date_valid TEXT,
			sort_date TEXT,
			regulatory_topics TEXT,
			related_legislation TEXT
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			title, description, regulatory_topics
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_sort_date ON documents(sort_date)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_publisher_id ON documents(publisher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(type)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// columnList is the column order used by every read and write. Keep scans
// and inserts in sync with it.
const columnList = `id, title, description, publisher, publisher_id, language, format,
	identifier, type, date_issued, date_modified, source_date_issued,
	source_date_modified, source_date_valid, sort_date, regulatory_topics,
	related_legislation`

// Upsert writes a document, creating it when the id is new and overwriting
// every field of the existing row on a primary-key conflict. Returns whether
// a fresh insert occurred. The document is validated before any write; an
// invalid document is rejected without touching the store.
func (s *Store) Upsert(doc document.Document) (bool, error) {
	if err := doc.Validate(); err != nil {
		return false, fmt.Errorf("validating document: %w", err)
	}

	related, err := document.MarshalRelatedLinks(doc.RelatedLegislation)
	if err != nil {
		return false, err
	}

	fields := []interface{}{
		doc.ID,
		doc.Title,
		doc.Description,
		doc.Publisher,
		doc.PublisherID,
		doc.Language,
		doc.Format,
		doc.Identifier,
		doc.Type,
		doc.DateIssued.ISO(),
		doc.DateModified.ISO(),
		doc.SourceDateIssued,
		doc.SourceDateModified,
		doc.SourceDateValid,
		doc.SortDate,
		doc.RegulatoryTopics,
		related,
	}

	// Row and index writes share one transaction so a failed index write
	// cannot leave a row persisted but unsearchable.
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning upsert for %s: %w", doc.ID, err)
	}
	defer tx.Rollback()

	inserted := true
	_, err = tx.Exec(`INSERT INTO documents (`+columnList+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, fields...)
	if err != nil {
		if !isConflict(err) {
			return false, fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
		// Expected on re-ingestion: fall back to a field-by-field overwrite.
		inserted = false
		_, err = tx.Exec(`UPDATE documents SET
			title = ?, description = ?, publisher = ?, publisher_id = ?,
			language = ?, format = ?, identifier = ?, type = ?,
			date_issued = ?, date_modified = ?, source_date_issued = ?,
			source_date_modified = ?, source_date_valid = ?, sort_date = ?,
			regulatory_topics = ?, related_legislation = ?
			WHERE id = ?`, append(fields[1:], doc.ID)...)
		if err != nil {
			return false, fmt.Errorf("updating document %s: %w", doc.ID, err)
		}
	}

	if err := indexDocument(tx, doc); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing upsert for %s: %w", doc.ID, err)
	}
	return inserted, nil
}

// indexDocument refreshes the FTS row for a document inside the upsert
// transaction.
func indexDocument(tx *sql.Tx, doc document.Document) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO documents_fts (rowid, title, description, regulatory_topics)
		VALUES ((SELECT rowid FROM documents WHERE id = ?), ?, ?, ?)`,
		doc.ID, doc.Title, doc.Description, doc.RegulatoryTopics)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.ID, err)
	}
	return nil
}

func isConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// ClearAll removes every document and its index entries. Run before a full
// rebuild.
func (s *Store) ClearAll() error {
	logger.Debugf("clearing all documents")
	if _, err := s.db.Exec("DELETE FROM documents_fts"); err != nil {
		return fmt.Errorf("clearing document index: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

// Get returns the document with the given id, or nil when absent.
func (s *Store) Get(id string) (*document.Document, error) {
	row := s.db.QueryRow(`SELECT `+columnList+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up document %s: %w", id, err)
	}
	return doc, nil
}

// Count returns the number of stored documents.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Publisher is one entry in the publisher facet.
type Publisher struct {
	Name string
	Key  string
}

// Publishers returns the distinct publisher name/key pairs present in the
// store, for facet rendering.
func (s *Store) Publishers() ([]Publisher, error) {
	rows, err := s.db.Query(`SELECT DISTINCT TRIM(publisher), TRIM(publisher_id)
		FROM documents
		WHERE publisher IS NOT NULL AND TRIM(publisher) != ''
		ORDER BY TRIM(publisher)`)
	if err != nil {
		return nil, fmt.Errorf("querying publishers: %w", err)
	}
	defer closeRows(rows)

	var publishers []Publisher
	for rows.Next() {
		var p Publisher
		if err := rows.Scan(&p.Name, &p.Key); err != nil {
			return nil, fmt.Errorf("scanning publisher: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publishers, rows.Err()
}

// DocumentTypes returns the distinct document types present in the store.
func (s *Store) DocumentTypes() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT type FROM documents
		WHERE type IS NOT NULL AND type != '' ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("querying document types: %w", err)
	}
	defer closeRows(rows)

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// WithRelatedLegislation returns every document carrying at least one
// related-legislation entry, for the title resolver.
func (s *Store) WithRelatedLegislation() ([]document.Document, error) {
	rows, err := s.db.Query(`SELECT ` + columnList + ` FROM documents
		WHERE related_legislation IS NOT NULL AND related_legislation != ''
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying related legislation: %w", err)
	}
	defer closeRows(rows)

	return collectDocuments(rows)
}

// UpdateRelatedLegislation persists a back-filled link list for a document.
func (s *Store) UpdateRelatedLegislation(id string, links []document.RelatedLink) error {
	related, err := document.MarshalRelatedLinks(links)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("UPDATE documents SET related_legislation = ? WHERE id = ?", related, id)
	if err != nil {
		return fmt.Errorf("updating related legislation for %s: %w", id, err)
	}
	return nil
}

// Optimize runs the SQLite optimizer.
func (s *Store) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

// Analyze refreshes table statistics.
func (s *Store) Analyze() error {
	_, err := s.db.Exec("ANALYZE")
	return err
}

// Vacuum rebuilds the database file.
func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

// WALCheckpoint truncates the write-ahead log.
func (s *Store) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// scanner abstracts *sql.Row and *sql.Rows for scanDocument.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*document.Document, error) {
	var doc document.Document
	var title, description, publisher, publisherID, language, format sql.NullString
	var identifier, docType, dateIssued, dateModified sql.NullString
	var srcIssued, srcModified, srcValid, sortDate, topics, related sql.NullString

	err := row.Scan(&doc.ID, &title, &description, &publisher, &publisherID,
		&language, &format, &identifier, &docType, &dateIssued, &dateModified,
		&srcIssued, &srcModified, &srcValid, &sortDate, &topics, &related)
	if err != nil {
		return nil, err
	}

	doc.Title = title.String
	doc.Description = description.String
	doc.Publisher = publisher.String
	doc.PublisherID = publisherID.String
	doc.Language = language.String
	doc.Format = format.String
	doc.Identifier = identifier.String
	doc.Type = docType.String
	doc.DateIssued = dates.Parse(dateIssued.String)
	doc.DateModified = dates.Parse(dateModified.String)
	doc.SourceDateIssued = srcIssued.String
	doc.SourceDateModified = srcModified.String
	doc.SourceDateValid = srcValid.String
	doc.SortDate = sortDate.String
	doc.RegulatoryTopics = topics.String

	if related.String != "" {
		links, err := document.ParseRelatedLinks(related.String)
		if err != nil {
			// A bad stored payload should not make the document unreadable.
			logger.Warnf("document %s has unreadable related legislation: %v", doc.ID, err)
		} else {
			doc.RelatedLegislation = links
		}
	}

	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]document.Document, error) {
	var docs []document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Warnf("failed to close rows: %v", err)
	}
}
