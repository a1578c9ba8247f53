// Package query parses free-text search strings into boolean full-text
// expressions. The grammar is deliberately small: quoted phrases, the
// literal operators AND and OR, and bare words. Adjacent terms with no
// operator between them are OR'd together; an explicit operator binds the
// pair it sits between and the default reverts to OR afterwards.
package query

import (
	"regexp"
	"strings"
)

// Term is one sub-query: a phrase (exact sequential match) or a plain word.
type Term struct {
	Text   string
	Phrase bool
}

// Query is a parsed search string ready to be turned into a full-text match
// expression, plus the diagnostics the search engine needs to decide whether
// the partial-match fallback is allowed.
type Query struct {
	Terms []Term

	// Operators[i] joins Terms[i] and Terms[i+1]; len(Operators) is always
	// len(Terms)-1. Values are "AND" or "OR".
	Operators []string

	// Counts of explicit syntax used in the input. A query with none of
	// these is a simple bag of words and qualifies for partial matching.
	AndCount    int
	OrCount     int
	PhraseCount int
}

var tokenPattern = regexp.MustCompile(`"[^"]+"|\bAND\b|\bOR\b|\w+`)

// Parse tokenizes a search string into a Query. Returns nil for input with
// no usable tokens; an empty query means "match everything" and is not an
// error.
func Parse(search string) *Query {
	tokens := tokenPattern.FindAllString(search, -1)
	if len(tokens) == 0 {
		return nil
	}

	q := &Query{}
	pending := "" // explicit operator waiting for its right-hand term

	for _, token := range tokens {
		switch strings.ToUpper(token) {
		case "AND":
			if len(q.Terms) > 0 {
				pending = "AND"
				q.AndCount++
			}
		case "OR":
			if len(q.Terms) > 0 {
				pending = "OR"
				q.OrCount++
			}
		default:
			phrase := strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`)
			text := strings.Trim(token, `"`)
			if strings.TrimSpace(text) == "" {
				continue
			}
			if phrase {
				q.PhraseCount++
			}
			if len(q.Terms) > 0 {
				op := pending
				if op == "" {
					op = "OR" // implicit operator between adjacent terms
				}
				q.Operators = append(q.Operators, op)
			}
			q.Terms = append(q.Terms, Term{Text: text, Phrase: phrase})
			pending = ""
		}
	}

	if len(q.Terms) == 0 {
		return nil
	}
	return q
}

// Simple reports whether the query used no explicit operators and no
// phrases, i.e. it was a plain bag of words. Only simple queries are
// eligible for the substring fallback.
func (q *Query) Simple() bool {
	return q != nil && q.AndCount == 0 && q.OrCount == 0 && q.PhraseCount == 0
}

// Match renders the query as an FTS5 MATCH expression. Every term is
// double-quoted, which makes bare words safe against FTS syntax characters
// and makes phrases match as exact sequences.
func (q *Query) Match() string {
	if q == nil || len(q.Terms) == 0 {
		return ""
	}
	var b strings.Builder
	for i, term := range q.Terms {
		if i > 0 {
			b.WriteString(" " + q.Operators[i-1] + " ")
		}
		b.WriteString(`"` + escapeTerm(term.Text) + `"`)
	}
	return b.String()
}

// Words returns the plain text of every term, used by the fallback search
// and the relevance scorer.
func (q *Query) Words() []string {
	if q == nil {
		return nil
	}
	words := make([]string, 0, len(q.Terms))
	for _, term := range q.Terms {
		words = append(words, term.Text)
	}
	return words
}

// escapeTerm doubles embedded quotes, the FTS5 escape for a quote inside a
// quoted string. The tokenizer strips balanced outer quotes so this only
// fires on pathological input.
func escapeTerm(text string) string {
	return strings.ReplaceAll(text, `"`, `""`)
}
