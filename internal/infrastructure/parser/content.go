package parser

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsAgent/internal/ports"
)

// ExtractionFailed is returned when a page has no recognisable body.
const ExtractionFailed = "Content could not be extracted from this article. The article may be behind a paywall or use a different structure."

var contentSelectors = []string{
	"div.td-post-content p",
	"div.entry-content p",
	"article p",
	"div.post-content p",
	".post-body p",
	".article-content p",
}

var sampleContent = map[string]string{
	"https://example.com/ai-breakthrough": "Researchers have unveiled a model that matches human performance on a broad set of reasoning benchmarks. " +
		"The system pairs transformer networks with symbolic reasoning modules so it can handle both pattern recognition and logical deduction.\n\n" +
		"The model solves mathematical problems, keeps track of context in natural language and applies learned knowledge to unfamiliar situations, " +
		"with implications for education, scientific discovery and automated decision-making.",
	"https://example.com/robotics-revolution": "A new generation of self-learning robots is changing manufacturing. " +
		"They adapt to new tasks without explicit programming, learning from demonstration and improving with experience.\n\n" +
		"Combining computer vision, machine learning and advanced control, early adopters report large productivity gains and much shorter setup times " +
		"for new production lines in assembly, quality control and material handling.",
	"https://example.com/ml-advances": "Recent neural network architectures handle several data types at once, improving results in computer vision, " +
		"natural language processing and scientific computing.\n\n" +
		"New attention mechanisms and training techniques let networks learn from less data, with applications in drug discovery, " +
		"climate modelling and autonomous systems, while making model decisions easier to interpret.",
}

// ContentExtractor implements ContentFetcher over plain HTML pages.
type ContentExtractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.ContentFetcher = (*ContentExtractor)(nil)

// NewContentExtractor wires an HTTP client; nil uses a 10s timeout client.
func NewContentExtractor(client *http.Client, logger *slog.Logger) *ContentExtractor {
	return &ContentExtractor{client: defaultClient(client), logger: logger}
}

// FetchContent returns the article paragraphs joined by blank lines. Pages
// that cannot be fetched or parsed yield a readable placeholder instead of
// an error.
func (c *ContentExtractor) FetchContent(ctx context.Context, url string) (string, error) {
	if text, ok := sampleContent[url]; ok {
		return text, nil
	}

	doc, err := fetchDocument(ctx, c.client, url)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.warn("article fetch failed", "url", url, "error", err)
		return ExtractionFailed, nil
	}

	var paragraphs []string
	for _, sel := range contentSelectors {
		doc.Find(sel).Each(func(_ int, p *goquery.Selection) {
			if text := cleanText(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	if len(paragraphs) == 0 {
		c.warn("no article body found", "url", url)
		return ExtractionFailed, nil
	}
	c.debug("article extracted", "url", url, "paragraphs", len(paragraphs))
	return strings.Join(paragraphs, "\n\n"), nil
}

func (c *ContentExtractor) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *ContentExtractor) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
