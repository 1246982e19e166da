package ports

import (
	"context"
	"time"

	"NewsAgent/internal/domain"
)

// ChatClient sends a prompt to a hosted language model and returns its text.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ArticleSource pulls the latest listing entries from upstream news sites.
type ArticleSource interface {
	FetchLatest(ctx context.Context, url string) ([]domain.Article, error)
}

// ContentFetcher extracts readable body text for an article URL.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// DocumentSink writes article bodies to a document on local storage.
type DocumentSink interface {
	Save(ctx context.Context, filename string, articles []domain.ArticleContent) (string, error)
}

// MailTransport delivers a single outbound email.
type MailTransport interface {
	Send(ctx context.Context, email domain.Email) error
}

// ToolGateway addresses named tools by identifier.
type ToolGateway interface {
	Names() []string
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// MemoryStore is the durable state the workflow reads and writes.
type MemoryStore interface {
	StorePreferences(prefs map[string]any) error
	Preferences() map[string]any
	StoreSession(record domain.SessionRecord) error
	RecentSessions(n int) []domain.SessionRecord
	CacheArticles(articles []domain.Article, source string) error
	CachedArticles(source string, maxAge time.Duration) ([]domain.Article, bool)
	StoreEmailSent(record domain.EmailRecord) error
	EmailHistory(n int) []domain.EmailRecord
	UpdateSystemState(patch domain.StatePatch) error
	SystemState() domain.SystemState
	RememberSelection(articles []domain.Article, reason string) error
	SelectionHistory() []domain.Selection
	Search(query string) []domain.SearchHit
	Summary() domain.MemorySummary
}

// RunArchive keeps an audit trail of finished runs.
type RunArchive interface {
	Record(ctx context.Context, run domain.RunRecord) error
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Notifier pushes short status messages to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Scheduler controls when workflow runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
