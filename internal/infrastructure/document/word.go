package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	docx "github.com/fumiama/go-docx"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

// WordWriter saves article bodies to a .docx file, one heading and one or
// more paragraphs per article.
type WordWriter struct {
	dir    string
	logger *slog.Logger
}

var _ ports.DocumentSink = (*WordWriter)(nil)

// NewWordWriter resolves relative filenames against dir; empty dir means
// the working directory.
func NewWordWriter(dir string, logger *slog.Logger) *WordWriter {
	return &WordWriter{dir: dir, logger: logger}
}

// Save replaces filename with a fresh document and reports where it went.
func (w *WordWriter) Save(ctx context.Context, filename string, articles []domain.ArticleContent) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("save document: filename is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filename
	if w.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(w.dir, path)
	}

	doc := docx.New().WithDefaultTheme().WithA4Page()
	for _, article := range articles {
		doc.AddParagraph().AddText(article.Title).Bold().Size("32")
		for _, block := range strings.Split(article.Content, "\n\n") {
			if block = strings.TrimSpace(block); block != "" {
				doc.AddParagraph().AddText(block)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close document: %w", err)
	}

	if w.logger != nil {
		w.logger.Debug("document saved", "path", path, "articles", len(articles))
	}
	return "Saved to " + filename, nil
}
