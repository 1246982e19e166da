package domain

// Article is a listing entry fetched from a news source.
type Article struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required"`
}

// ArticleContent pairs a selected article with its body text.
// Content may be a placeholder when extraction failed.
type ArticleContent struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
}

// Titles returns the article titles in order.
func Titles(articles []Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}

// SampleArticles returns the fixed demo set used when no source is reachable.
func SampleArticles() []Article {
	return []Article{
		{Title: "AI Breakthrough: New Model Achieves Human-Level Reasoning", URL: "https://example.com/ai-breakthrough"},
		{Title: "Robotics Revolution: Self-Learning Robots Transform Manufacturing", URL: "https://example.com/robotics-revolution"},
		{Title: "Machine Learning Advances: Neural Networks Solve Complex Problems", URL: "https://example.com/ml-advances"},
	}
}

// PlaceholderContent is used when a body could not be fetched for title.
func PlaceholderContent(title string) string {
	return "Content for " + title + " could not be fetched. This is placeholder content."
}
