// Package resolver back-fills display titles for related-legislation links.
// Source feeds carry bare URLs; the resolver fetches each linked page and
// extracts its title so search results can show readable link text. The pass
// is independently re-runnable: it only touches link titles.
package resolver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/openregulatory/regsearch/pkg/log"
	"github.com/openregulatory/regsearch/pkg/sources"
	"github.com/openregulatory/regsearch/pkg/storage"
)

var logger = log.ForService("resolver")

type Resolver struct {
	store  *storage.Store
	client *http.Client
}

func New(store *storage.Store) *Resolver {
	return &Resolver{
		store:  store,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithClient is used by tests to inject a client.
func NewWithClient(store *storage.Store, client *http.Client) *Resolver {
	return &Resolver{store: store, client: client}
}

// ResolveTitles walks every stored document carrying related-legislation
// entries and resolves each entry's page title. A fetch or parse failure on
// one URL leaves that entry's title as it was and moves on; only a store
// failure aborts the pass.
func (r *Resolver) ResolveTitles(ctx context.Context) error {
	docs, err := r.store.WithRelatedLegislation()
	if err != nil {
		return err
	}

	resolved := 0
	failed := 0
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		changed := false
		links := doc.RelatedLegislation
		for i := range links {
			title, err := r.fetchTitle(ctx, links[i].URL)
			if err != nil {
				failed++
				logger.Warnf("document %s: could not resolve %s: %v", doc.ID, links[i].URL, err)
				continue
			}
			resolved++
			if title != links[i].Title {
				links[i].Title = title
				changed = true
			}
		}

		if changed {
			if err := r.store.UpdateRelatedLegislation(doc.ID, links); err != nil {
				return err
			}
		}
	}

	logger.Infof("title resolution complete: %d resolved, %d failed", resolved, failed)
	return nil
}

func (r *Resolver) fetchTitle(ctx context.Context, rawURL string) (string, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	body, err := sources.Fetch(ctx, r.client, rawURL, nil)
	if err != nil {
		return "", err
	}
	return ExtractTitle(body)
}

// ExtractTitle pulls a page title out of an HTML document, preferring the
// DC.title meta tag and falling back to the element with id "pageTitle".
// Returns empty when neither is present.
func ExtractTitle(body []byte) (string, error) {
	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}

	if title := findMetaTitle(root); title != "" {
		return title, nil
	}
	if node := findByID(root, "pageTitle"); node != nil {
		return strings.TrimSpace(textContent(node)), nil
	}
	return "", nil
}

func findMetaTitle(node *html.Node) string {
	if node.Type == html.ElementNode && node.Data == "meta" {
		var name, content string
		for _, attr := range node.Attr {
			switch attr.Key {
			case "name":
				name = attr.Val
			case "content":
				content = attr.Val
			}
		}
		if name == "DC.title" {
			return strings.TrimSpace(content)
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if title := findMetaTitle(child); title != "" {
			return title
		}
	}
	return ""
}

func findByID(node *html.Node, id string) *html.Node {
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Key == "id" && attr.Val == id {
				return node
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func textContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var sb strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(textContent(child))
	}
	return sb.String()
}
