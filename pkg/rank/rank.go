// Package rank orders search results by relevance. Ranking is weighted by
// field: a match in the title counts more than one in the description,
// which counts more than one in the topics. On top of the weights there is
// a hard tier: any document whose title matches the query at all ranks above
// every document whose title does not, whatever their other fields score.
package rank

import (
	"sort"
	"strings"
	"unicode"

	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/query"
)

// Field weight multipliers. The title-match indicator is scaled far beyond
// any achievable weighted sum so the tier ordering cannot be overtaken.
const (
	titleTier   = 1e9
	titleWeight = 1000
	totalWeight = 100
	descWeight  = 10
	topicWeight = 1
)

// Score computes a relevance score for every candidate and returns them
// ordered best-first. Candidates are modified in place (their Score field is
// set) and the returned slice is the same backing array re-ordered.
//
// Ties on identical scores break by sort date descending, then id
// ascending, so a repeated query always yields the same order.
func Score(q *query.Query, docs []document.Document) []document.Document {
	for i := range docs {
		docs[i].Score = scoreDocument(q.Terms, &docs[i])
	}

	sort.SliceStable(docs, func(a, b int) bool {
		if docs[a].Score != docs[b].Score {
			return docs[a].Score > docs[b].Score
		}
		if docs[a].SortDate != docs[b].SortDate {
			return docs[a].SortDate > docs[b].SortDate
		}
		return docs[a].ID < docs[b].ID
	})

	return docs
}

func scoreDocument(terms []query.Term, doc *document.Document) float64 {
	titleRank := fieldRank(terms, doc.Title)
	descRank := fieldRank(terms, doc.Description)
	topicsRank := fieldRank(terms, doc.RegulatoryTopics)
	overall := titleRank + descRank + topicsRank

	score := overall*totalWeight + descRank*descWeight + topicsRank*topicWeight
	if titleRank > 0 {
		score += titleTier + titleRank*titleWeight
	}
	return score
}

// fieldRank counts case-insensitive term occurrences in a field. Bare terms
// count whole-word occurrences only, so "car" does not match "carbon".
// Phrases count as substrings: "carbon emissions" only counts when the
// words appear in sequence.
func fieldRank(terms []query.Term, field string) float64 {
	if field == "" {
		return 0
	}
	haystack := strings.ToLower(field)
	var words []string

	var rank float64
	for _, term := range terms {
		text := strings.ToLower(strings.TrimSpace(term.Text))
		if text == "" {
			continue
		}
		if term.Phrase {
			rank += float64(strings.Count(haystack, text))
			continue
		}
		if words == nil {
			words = splitWords(haystack)
		}
		for _, w := range words {
			if w == text {
				rank++
			}
		}
	}
	return rank
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
