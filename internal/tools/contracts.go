package tools

import "NewsAgent/internal/domain"

// Logical tool names. The validated variant is addressed as name + "_v2".
const (
	FetchNews    = "fetch_ai_news"
	FetchContent = "fetch_article_content"
	SaveDocument = "save_to_word"
	SendEmail    = "send_email"

	v2Suffix = "_v2"
)

// FetchNewsInput is the validated input of fetch_ai_news_v2.
type FetchNewsInput struct {
	URL string `json:"url,omitempty" validate:"omitempty,url"`
}

// FetchNewsOutput is the structured output of fetch_ai_news_v2.
type FetchNewsOutput struct {
	Articles []domain.Article `json:"articles" validate:"dive"`
}

// FetchContentInput is the validated input of fetch_article_content_v2.
type FetchContentInput struct {
	URL string `json:"url" validate:"required,url"`
}

// FetchContentOutput is the structured output of fetch_article_content_v2.
type FetchContentOutput struct {
	Content string `json:"content"`
}

// SaveDocumentInput is the validated input of save_to_word_v2.
type SaveDocumentInput struct {
	Filename string                  `json:"filename" validate:"required"`
	Articles []domain.ArticleContent `json:"articles" validate:"required,min=1,dive"`
}

// SendEmailInput is the validated input of send_email_v2.
type SendEmailInput struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
	ToEmail string `json:"to_email" validate:"required,email"`
}

// MessageOutput is the structured output of tools that only confirm.
type MessageOutput struct {
	Message string `json:"message"`
}
