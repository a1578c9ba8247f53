// Package search serves queries against the document store. A request walks
// fixed stages: direct id lookup, query sanitization, strict full-text
// matching, a partial-match fallback for simple queries, facet narrowing,
// ordering and pagination. Failures degrade to an empty response; a search
// never returns an error to its caller.
package search

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/openregulatory/regsearch/pkg/dates"
	"github.com/openregulatory/regsearch/pkg/document"
	"github.com/openregulatory/regsearch/pkg/log"
	"github.com/openregulatory/regsearch/pkg/query"
	"github.com/openregulatory/regsearch/pkg/rank"
	"github.com/openregulatory/regsearch/pkg/storage"
)

var logger = log.ForService("search")

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	SortRecent    = "recent"
	SortRelevance = "relevance"
)

// Request is one search invocation.
type Request struct {
	Query      string
	Types      []string
	Publishers []string
	Page       int
	Limit      int
	Sort       string

	// ID short-circuits everything else and looks up one document.
	ID string
}

// ParseRequest builds a Request from URL-style parameters. Bad numbers fall
// back to defaults rather than failing the request.
func ParseRequest(values url.Values) Request {
	req := Request{
		Query:      values.Get("search"),
		Types:      splitParam(values["document_type"]),
		Publishers: splitParam(values["publisher"]),
		Sort:       values.Get("sort"),
		ID:         values.Get("id"),
		Page:       DefaultPage,
		Limit:      DefaultLimit,
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		req.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		req.Limit = limit
	}
	return req
}

// splitParam accepts both repeated parameters and comma-separated values.
func splitParam(raw []string) []string {
	var out []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Summary is one search result, shaped for display.
type Summary struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title"`
	Publisher          string                 `json:"publisher"`
	Description        string                 `json:"description"`
	TypeLabel          string                 `json:"type_label"`
	DateModified       string                 `json:"date_modified"`
	DateIssued         string                 `json:"date_issued"`
	Topics             []string               `json:"topics,omitempty"`
	RelatedLegislation []document.RelatedLink `json:"related_legislation,omitempty"`
	Score              float64                `json:"score,omitempty"`
}

// Response carries a page of results plus pagination metadata.
type Response struct {
	Results     []Summary `json:"results"`
	TotalCount  int       `json:"total_count"`
	PageCount   int       `json:"page_count"`
	CurrentPage int       `json:"current_page"`
	StartIndex  int       `json:"start_index"`
	EndIndex    int       `json:"end_index"`
	HasMore     bool      `json:"has_more"`
	Query       string    `json:"query,omitempty"`
}

type Service struct {
	store *storage.Store
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Search executes a request. Storage failures are logged and produce an
// empty response; the caller always gets a well-formed page.
func (s *Service) Search(req Request) Response {
	if req.ID != "" {
		return s.byID(req)
	}

	sanitized := Sanitize(req.Query)
	filters := storage.Filters{
		Types:      lowerAll(req.Types),
		Publishers: lowerAll(req.Publishers),
	}

	q := query.Parse(sanitized)

	var docs []document.Document
	var err error
	if q == nil {
		docs, err = s.store.Browse(filters)
	} else {
		docs, err = s.store.StrictSearch(q.Match(), filters)
		if err == nil && len(docs) == 0 && q.Simple() {
			docs, err = s.store.PartialSearch(q.Words(), filters)
		}
	}
	if err != nil {
		logger.Errorf("search for %q failed: %v", sanitized, err)
		return paginate(nil, req, sanitized)
	}

	if req.Sort == SortRelevance && q != nil {
		docs = rank.Score(q, docs)
	}

	return paginate(docs, req, sanitized)
}

func (s *Service) byID(req Request) Response {
	doc, err := s.store.Get(req.ID)
	if err != nil {
		logger.Errorf("lookup of %q failed: %v", req.ID, err)
		return paginate(nil, req, "")
	}
	if doc == nil {
		return paginate(nil, req, "")
	}
	return paginate([]document.Document{*doc}, req, "")
}

// Sanitize strips everything but letters, digits, spaces, double quotes and
// hyphens from a raw query, collapsing runs of whitespace.
func Sanitize(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '"' || r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func lowerAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

// paginate clamps the requested page into range and cuts the matching slice.
func paginate(docs []document.Document, req Request, queryText string) Response {
	limit := req.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	total := len(docs)
	pageCount := (total + limit - 1) / limit
	if pageCount < 1 {
		pageCount = 1
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	resp := Response{
		TotalCount:  total,
		PageCount:   pageCount,
		CurrentPage: page,
		StartIndex:  start,
		EndIndex:    end,
		HasMore:     end < total,
		Query:       queryText,
	}
	for _, doc := range docs[start:end] {
		resp.Results = append(resp.Results, summarize(doc))
	}
	return resp
}

func summarize(doc document.Document) Summary {
	return Summary{
		ID:                 doc.ID,
		Title:              doc.Title,
		Publisher:          doc.Publisher,
		Description:        doc.Description,
		TypeLabel:          document.TypeLabel(doc.Type),
		DateModified:       displayDate(doc.DateModified, doc.SourceDateModified),
		DateIssued:         displayDate(doc.DateIssued, doc.SourceDateIssued),
		Topics:             doc.Topics(),
		RelatedLegislation: displayableLinks(doc.RelatedLegislation),
		Score:              doc.Score,
	}
}

// displayDate prefers the normalized date; an unparseable source string is
// shown verbatim rather than hidden.
func displayDate(parsed *dates.Date, source string) string {
	if parsed != nil {
		return parsed.Display()
	}
	return dates.DisplayString(source)
}

// displayableLinks keeps only fully-resolved entries for display.
func displayableLinks(links []document.RelatedLink) []document.RelatedLink {
	var out []document.RelatedLink
	for _, link := range links {
		if link.URL != "" && link.Title != "" {
			out = append(out, link)
		}
	}
	return out
}
