package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/scanner"
)

const (
	minTitleLength  = 10
	perSourceLimit  = 15
	selectorsOption = "selectors"
	maxOption       = "max"
)

var (
	genericSelectors = []string{"h2 a", "h3 a", "h1 a"}

	hostSelectors = map[string][]string{
		"artificialintelligence-news.com": {"h3.td-module-title a", "div.td-module-thumb a", `a[rel="bookmark"]`},
		"venturebeat.com":                 {"h2 a", "h3 a", ".post-title a"},
		"theverge.com":                    {"h2 a", "h3 a", ".c-entry-box--compact__title a"},
		"techcrunch.com":                  {"h2 a", "h3 a", ".post-block__title a"},
	}
)

// SelectorScanner extracts headline links from news listing pages using CSS
// selectors chosen per host or supplied through the "selectors" option.
type SelectorScanner struct {
	client *http.Client
	logger *slog.Logger
}

var _ scanner.Scanner = (*SelectorScanner)(nil)

// NewSelectorScanner wires an HTTP client; nil uses a 10s timeout client.
func NewSelectorScanner(client *http.Client, logger *slog.Logger) *SelectorScanner {
	return &SelectorScanner{client: defaultClient(client), logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *SelectorScanner) Name() string {
	return "selectors"
}

// Scan walks each category page and collects headline links.
func (s *SelectorScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	limit := perSourceLimit
	if req.Limit > 0 {
		limit = req.Limit
	}
	if v, err := strconv.Atoi(req.Options[maxOption]); err == nil && v > 0 {
		limit = v
	}

	var (
		results []domain.Article
		seen    = map[string]struct{}{}
		lastErr error
	)
	for _, cat := range req.Categories {
		doc, err := fetchDocument(ctx, s.client, cat.URL)
		if err != nil {
			s.debug("listing fetch failed", "site", req.SiteName, "category", cat.Name, "error", err)
			lastErr = fmt.Errorf("category %s: %w", cat.Name, err)
			continue
		}

		for _, a := range extractHeadlines(doc, cat.URL, selectorsFor(cat.URL, req.Options), limit) {
			if _, ok := seen[a.URL]; ok {
				continue
			}
			seen[a.URL] = struct{}{}
			results = append(results, a)
		}
		if len(results) >= limit {
			results = results[:limit]
			break
		}
	}

	if len(results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return results, nil
}

func selectorsFor(pageURL string, options map[string]string) []string {
	if raw := strings.TrimSpace(options[selectorsOption]); raw != "" {
		var out []string
		for _, sel := range strings.Split(raw, ";") {
			if sel = strings.TrimSpace(sel); sel != "" {
				out = append(out, sel)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	if u, err := url.Parse(pageURL); err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if sel, ok := hostSelectors[host]; ok {
			return sel
		}
	}
	return genericSelectors
}

// extractHeadlines tries selectors in order and keeps links with a
// meaningful title and an absolute http(s) target.
func extractHeadlines(doc *goquery.Document, pageURL string, selectors []string, limit int) []domain.Article {
	base, _ := url.Parse(pageURL)

	var (
		out  []domain.Article
		seen = map[string]struct{}{}
	)
	for _, sel := range selectors {
		doc.Find(sel).EachWithBreak(func(_ int, link *goquery.Selection) bool {
			title, _ := link.Attr("title")
			title = cleanText(title)
			if title == "" {
				title = cleanText(link.Text())
			}
			href, ok := link.Attr("href")
			if !ok || len([]rune(title)) <= minTitleLength {
				return true
			}

			target := resolve(base, strings.TrimSpace(href))
			if target == "" {
				return true
			}
			if _, dup := seen[target]; dup {
				return true
			}
			seen[target] = struct{}{}
			out = append(out, domain.Article{Title: title, URL: target})
			return len(out) < limit
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || href == "" {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

func (s *SelectorScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
