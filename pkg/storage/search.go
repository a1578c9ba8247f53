package storage

import (
	"fmt"
	"strings"

	"github.com/openregulatory/regsearch/pkg/document"
)

// Filters narrow a search to documents matching at least one of the listed
// types and at least one of the listed publishers. Values within a facet are
// ORed together; the two facets are ANDed.
type Filters struct {
	Types      []string
	Publishers []string
}

func (f Filters) empty() bool {
	return len(f.Types) == 0 && len(f.Publishers) == 0
}

// StrictSearch runs an FTS5 MATCH over title, description and regulatory
// topics, returning matches ordered by sort date descending with undated
// documents last.
func (s *Store) StrictSearch(matchExpr string, filters Filters) ([]document.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + columnList + ` FROM documents
		WHERE rowid IN (SELECT rowid FROM documents_fts WHERE documents_fts MATCH ?)`)
	args := []interface{}{matchExpr}

	appendFilters(&sb, &args, filters)
	sb.WriteString(recentOrder)

	rows, err := s.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("strict search: %w", err)
	}
	defer closeRows(rows)

	return collectDocuments(rows)
}

// PartialSearch matches documents whose title, description or topics contain
// any of the terms as a case-insensitive substring. Used as a fallback when
// the strict pass finds nothing for a simple query.
func (s *Store) PartialSearch(terms []string, filters Filters) ([]document.Document, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + columnList + ` FROM documents WHERE (`)
	var args []interface{}
	for i, term := range terms {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("title LIKE ? OR description LIKE ? OR regulatory_topics LIKE ?")
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern, pattern)
	}
	sb.WriteString(")")

	appendFilters(&sb, &args, filters)
	sb.WriteString(recentOrder)

	rows, err := s.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("partial search: %w", err)
	}
	defer closeRows(rows)

	return collectDocuments(rows)
}

// Browse returns filtered documents without any text matching, newest first.
// Serves the empty-query listing.
func (s *Store) Browse(filters Filters) ([]document.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + columnList + ` FROM documents WHERE 1=1`)
	var args []interface{}

	appendFilters(&sb, &args, filters)
	sb.WriteString(recentOrder)

	rows, err := s.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("browsing documents: %w", err)
	}
	defer closeRows(rows)

	return collectDocuments(rows)
}

// Undated documents sink to the end; ties break on id for a stable listing.
const recentOrder = ` ORDER BY (sort_date IS NULL OR sort_date = ''), sort_date DESC, id`

func appendFilters(sb *strings.Builder, args *[]interface{}, filters Filters) {
	if filters.empty() {
		return
	}
	if len(filters.Types) > 0 {
		sb.WriteString(" AND (")
		for i, t := range filters.Types {
			if i > 0 {
				sb.WriteString(" OR ")
			}
			// Substring, not equality: a "legislation" filter must match
			// stored types like "Primary Legislation".
			sb.WriteString("LOWER(type) LIKE '%' || LOWER(?) || '%'")
			*args = append(*args, t)
		}
		sb.WriteString(")")
	}
	if len(filters.Publishers) > 0 {
		sb.WriteString(" AND (")
		for i, p := range filters.Publishers {
			if i > 0 {
				sb.WriteString(" OR ")
			}
			sb.WriteString("publisher_id LIKE '%' || LOWER(?) || '%'")
			*args = append(*args, p)
		}
		sb.WriteString(")")
	}
}
