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

const arxivBaseURL = "https://arxiv.org"

// ArxivScanner reads the newest entries of arXiv category listings.
type ArxivScanner struct {
	client   *http.Client
	pageSize int
	logger   *slog.Logger
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client; pageSize defaults to 25.
func NewArxivScanner(client *http.Client, logger *slog.Logger) *ArxivScanner {
	return &ArxivScanner{client: defaultClient(client), pageSize: 25, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan reads the first page of each category and returns its entries.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = a.pageSize
	}

	results := make([]domain.Article, 0)
	seen := map[string]struct{}{}

	for _, cat := range req.Categories {
		pageURL, err := buildPageURL(cat.URL, 0, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		doc, err := fetchDocument(ctx, a.client, pageURL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}

		doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
			article, err := parseEntry(dt, dt.Next())
			if err != nil {
				a.debug("skip arxiv entry", "category", cat.Name, "error", err)
				return true
			}
			if _, ok := seen[article.URL]; ok {
				return true
			}
			seen[article.URL] = struct{}{}
			results = append(results, article)
			return len(results) < limit
		})
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

func parseEntry(dt, dd *goquery.Selection) (domain.Article, error) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return domain.Article{}, fmt.Errorf("entry has no abstract link")
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := cleanText(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))
	if title == "" {
		return domain.Article{}, fmt.Errorf("entry %s has no title", href)
	}

	return domain.Article{Title: title, URL: href}, nil
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (a *ArxivScanner) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
