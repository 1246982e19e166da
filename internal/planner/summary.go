package planner

import (
	"fmt"
	"strings"

	"NewsAgent/internal/domain"
)

const (
	// SummaryFailed is returned by GenerateSummary when no digest could be produced.
	SummaryFailed = "Summary generation failed. Please check the articles and try again."

	fallbackHeader  = "AI News & Robotics Summary (Fallback)"
	fallbackPreview = 220
)

// IsSummaryFailure reports whether s is the failure sentinel or empty.
func IsSummaryFailure(s string) bool {
	return strings.TrimSpace(s) == "" || s == SummaryFailed
}

// FallbackSummary lists each article with the start of its content.
func FallbackSummary(articles []domain.ArticleContent) string {
	items := make([]string, 0, len(articles))
	for i, a := range articles {
		items = append(items, fmt.Sprintf("%d. %s\n   %s...", i+1, a.Title, truncate(a.Content, fallbackPreview)))
	}
	return fallbackHeader + "\n\n" + strings.Join(items, "\n\n")
}
