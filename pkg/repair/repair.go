// Package repair turns the malformed pseudo-JSON emitted by one of the
// trade-data feeds into usable link lists. The upstream field looks like
//
//	[{url: https://example.com, title: Some Act 2008}, {url: ..., title: ...}]
//
// with no string quoting at all, so a JSON parser rejects it outright. The
// repair is a best-effort token-level parse, not a general JSON parser:
// objects are split on "},", fields on commas that begin a known key, and
// values on the first ":" of each fragment.
//
// Known limitations: a value containing "}," splits the object early, and a
// value containing a ", url:" or ", title:" sequence is truncated at that
// point. A stricter upstream contract would remove this package entirely.
package repair

import (
	"strings"

	"github.com/openregulatory/regsearch/pkg/document"
)

// List repairs a pseudo-JSON list of {url, title} fragments. Fragments with
// no recognizable url are dropped. Returns nil when nothing survives.
func List(raw string) []document.RelatedLink {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var links []document.RelatedLink
	for _, fragment := range strings.Split(raw, "},") {
		link := parseObject(fragment)
		if link.URL != "" {
			links = append(links, link)
		}
	}
	return links
}

// parseObject extracts url and title from one brace-delimited fragment.
func parseObject(fragment string) document.RelatedLink {
	fragment = strings.Trim(strings.TrimSpace(fragment), "{}")

	var link document.RelatedLink
	for _, field := range splitFields(fragment) {
		key, value, found := strings.Cut(field, ":")
		if !found {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), `"'`)
		// The value may itself contain ":" (https://...), so only the first
		// colon separates key from value.
		value = strings.Trim(strings.TrimSpace(value), `"',`)
		switch strings.ToLower(key) {
		case "url":
			link.URL = value
		case "title":
			link.Title = value
		}
	}
	return link
}

// splitFields splits an object body into key/value fragments. The split is
// on commas that are followed by a known key, which keeps URLs containing
// commas intact but still breaks on quoted commas inside titles (see the
// package comment).
func splitFields(body string) []string {
	parts := strings.Split(body, ",")

	var fields []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if isFieldStart(trimmed) || len(fields) == 0 {
			fields = append(fields, part)
			continue
		}
		// Continuation of the previous value (a comma that did not start a
		// new field). Reattach it.
		fields[len(fields)-1] += "," + part
	}
	return fields
}

func isFieldStart(fragment string) bool {
	lower := strings.ToLower(strings.TrimLeft(fragment, `"' `))
	for _, key := range []string{"url", "title"} {
		rest, ok := strings.CutPrefix(lower, key)
		if !ok {
			continue
		}
		// The key may carry its own quoting ('url': ...) or stray spaces
		// before the colon.
		if strings.HasPrefix(strings.TrimLeft(rest, `"' `), ":") {
			return true
		}
	}
	return false
}
