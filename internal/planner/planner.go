package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/reply"
)

const (
	cacheWindow      = 6 * time.Hour
	highConfidence   = 0.8
	criticalRetries  = 3
	criticalDelaySec = 5
	bodyPromptLimit  = 500
	reasonDepth      = 3
	estimatedTime    = "2-3 minutes"

	// maxArticleCount matches the size of one fetched listing.
	maxArticleCount = 10

	// SelectionReason is remembered alongside every selection.
	SelectionReason = "AI and Robotics relevance"
)

var urgentKeywords = []string{"urgent", "asap", "important", "critical", "now"}

// Config holds the default step parameters.
type Config struct {
	Timeout      time.Duration
	NewsURL      string
	Filename     string
	Recipient    string
	Subject      string
	ArticleCount int
}

// Planner builds and adapts workflow plans and makes model-backed choices.
type Planner struct {
	client ports.ChatClient
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// Option customises a Planner.
type Option func(*Planner)

// WithClock replaces the wall clock used by cache decisions.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// New wires a planner. A nil client makes every model-backed choice fall back.
func New(client ports.ChatClient, cfg Config, logger *slog.Logger, opts ...Option) *Planner {
	if cfg.ArticleCount <= 0 {
		cfg.ArticleCount = 3
	}
	if cfg.Filename == "" {
		cfg.Filename = "ai_news_articles.docx"
	}
	if cfg.Subject == "" {
		cfg.Subject = "AI News & Robotics Summary"
	}
	p := &Planner{client: client, cfg: cfg, now: time.Now, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// CreatePlan emits the fixed six-step plan. A custom intent only overrides
// step parameters from the extracted preferences.
func (p *Planner) CreatePlan(perception domain.Perception, summary domain.MemorySummary) domain.WorkflowPlan {
	count := p.cfg.ArticleCount
	filename := p.cfg.Filename
	recipient := p.cfg.Recipient

	if perception.Intent.Intent == domain.IntentCustom {
		prefs := perception.Facts.Preferences
		if n, ok := intValue(prefs["article_count"]); ok && n > 0 {
			count = min(n, maxArticleCount)
		}
		if v, ok := prefs["filename"].(string); ok && strings.TrimSpace(v) != "" {
			filename = strings.TrimSpace(v)
		}
		if v, ok := prefs["email"].(string); ok && strings.TrimSpace(v) != "" {
			recipient = strings.TrimSpace(v)
		}
	}

	steps := []domain.WorkflowStep{
		{Step: 1, Action: domain.ActionFetchNews, Description: "Fetch latest AI news articles", Required: true,
			Parameters: map[string]any{domain.ParamURL: p.cfg.NewsURL}},
		{Step: 2, Action: domain.ActionSelectArticles, Description: "Select most relevant articles", Required: true,
			Parameters: map[string]any{domain.ParamArticleCount: count, domain.ParamCriteria: SelectionReason}},
		{Step: 3, Action: domain.ActionFetchContent, Description: "Fetch full content of selected articles", Required: true,
			Parameters: map[string]any{}},
		{Step: 4, Action: domain.ActionSaveDocument, Description: "Save articles to Word document", Required: false,
			Parameters: map[string]any{domain.ParamFilename: filename}},
		{Step: 5, Action: domain.ActionSummarize, Description: "Generate article summary", Required: true,
			Parameters: map[string]any{}},
		{Step: 6, Action: domain.ActionSendEmail, Description: "Send summary via email", Required: true,
			Parameters: map[string]any{domain.ParamSubject: p.cfg.Subject, domain.ParamToEmail: recipient}},
	}

	plan := domain.WorkflowPlan{
		Steps:         steps,
		TotalSteps:    len(steps),
		EstimatedTime: estimatedTime,
		Priority:      p.DeterminePriority(perception, summary),
	}
	p.debug("plan created", "steps", plan.TotalSteps, "priority", plan.Priority, "intent", perception.Intent.Intent)
	return plan
}

// ShouldUseCache reports whether the previous run is recent enough to reuse
// its article listing.
func (p *Planner) ShouldUseCache(summary domain.MemorySummary) bool {
	last := summary.SystemState.LastRun
	if last == nil {
		return false
	}
	return p.now().Sub(*last) < cacheWindow
}

// DeterminePriority marks confident or urgent requests as high priority.
func (p *Planner) DeterminePriority(perception domain.Perception, _ domain.MemorySummary) domain.Priority {
	if perception.Intent.Confidence > highConfidence {
		return domain.PriorityHigh
	}
	raw := strings.ToLower(perception.Intent.RawInput)
	for _, kw := range urgentKeywords {
		if strings.Contains(raw, kw) {
			return domain.PriorityHigh
		}
	}
	return domain.PriorityNormal
}

// Optimize attaches retry metadata to the critical steps unless past runs
// mostly succeeded.
func (p *Planner) Optimize(plan domain.WorkflowPlan, summary domain.MemorySummary) domain.WorkflowPlan {
	st := summary.SystemState
	if st.SuccessfulRuns > st.FailedRuns {
		return plan
	}

	steps := make([]domain.WorkflowStep, len(plan.Steps))
	copy(steps, plan.Steps)
	for i := range steps {
		if steps[i].Action == domain.ActionFetchNews || steps[i].Action == domain.ActionSendEmail {
			steps[i].RetryCount = criticalRetries
			steps[i].RetryDelay = criticalDelaySec
		}
	}
	plan.Steps = steps
	p.debug("plan optimized with retries", "successful_runs", st.SuccessfulRuns, "failed_runs", st.FailedRuns)
	return plan
}

type selectionReply struct {
	Selected []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"selected"`
}

// SelectRelevantArticles asks the model for the most relevant titles and
// keeps only those present in articles. Any failure yields the first count.
func (p *Planner) SelectRelevantArticles(ctx context.Context, articles []domain.Article, summary domain.MemorySummary, count int) []domain.Article {
	if count <= 0 {
		count = p.cfg.ArticleCount
	}
	count = min(count, len(articles))
	fallback := firstN(articles, count)
	if len(articles) <= 1 {
		return fallback
	}

	r, err := reply.Ask(ctx, p.client, p.cfg.Timeout, selectionPrompt(articles, summary, count))
	if err != nil {
		p.warn("article selection failed, using first articles", "error", err)
		return fallback
	}

	var parsed selectionReply
	switch r.Kind {
	case reply.Structured:
		if err := reply.Decode(r, &parsed); err != nil {
			p.warn("selection reply has unexpected shape, using first articles", "error", err)
			return fallback
		}
	default:
		p.warn("selection reply is not JSON, using first articles")
		return fallback
	}

	byTitle := make(map[string]domain.Article, len(articles))
	for _, a := range articles {
		if _, ok := byTitle[a.Title]; !ok {
			byTitle[a.Title] = a
		}
	}

	selected := make([]domain.Article, 0, count)
	seen := map[string]struct{}{}
	for _, item := range parsed.Selected {
		a, ok := byTitle[item.Title]
		if !ok {
			p.debug("dropping unknown title from selection", "title", item.Title)
			continue
		}
		if _, dup := seen[a.Title]; dup {
			continue
		}
		seen[a.Title] = struct{}{}
		selected = append(selected, a)
		if len(selected) == count {
			break
		}
	}

	if len(selected) == 0 {
		p.warn("selection reply named no known articles, using first articles")
		return fallback
	}
	p.debug("articles selected", "count", len(selected))
	return selected
}

// GenerateSummary asks the model for a digest of the articles. On any
// failure it returns SummaryFailed.
func (p *Planner) GenerateSummary(ctx context.Context, articles []domain.ArticleContent, summary domain.MemorySummary) string {
	if len(articles) == 0 {
		return SummaryFailed
	}

	text, err := reply.Complete(ctx, p.client, p.cfg.Timeout, summaryPrompt(articles, summary))
	if err != nil {
		p.warn("summary generation failed", "error", err)
		return SummaryFailed
	}
	if text == "" {
		p.warn("summary generation returned empty text")
		return SummaryFailed
	}
	p.debug("summary generated", "length", len(text))
	return text
}

func selectionPrompt(articles []domain.Article, summary domain.MemorySummary, count int) string {
	var list strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&list, "%d. %s (%s)\n", i+1, a.Title, a.URL)
	}

	return fmt.Sprintf(`Given this list of AI news articles and context, select the %d most relevant ones.

Context:
%s
Articles:
%s
Consider:
1. Relevance to AI and Robotics
2. User's previous selections and preferences
3. Current trends and importance

Return only a JSON object in this exact format, copying titles verbatim:
{"selected": [{"title": "...", "url": "..."}]}`, count, selectionContext(summary), list.String())
}

func selectionContext(summary domain.MemorySummary) string {
	var b strings.Builder
	reasons := summary.RecentReasons
	if len(reasons) > reasonDepth {
		reasons = reasons[len(reasons)-reasonDepth:]
	}
	if len(reasons) > 0 {
		fmt.Fprintf(&b, "Previous selection reasons: %s\n", strings.Join(reasons, "; "))
	}
	if len(summary.Preferences) > 0 {
		keys := make([]string, 0, len(summary.Preferences))
		for k := range summary.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, summary.Preferences[k]))
		}
		fmt.Fprintf(&b, "User preferences: %s\n", strings.Join(pairs, ", "))
	}
	if b.Len() == 0 {
		return "No previous selections.\n"
	}
	return b.String()
}

func summaryPrompt(articles []domain.ArticleContent, summary domain.MemorySummary) string {
	history := "No previous summaries."
	if len(summary.RecentSubjects) > 0 {
		history = "Previously sent: " + strings.Join(summary.RecentSubjects, "; ")
	}

	var body strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&body, "\n\nTitle: %s\nContent: %s...", a.Title, truncate(a.Content, bodyPromptLimit))
	}

	return fmt.Sprintf(`Summarize these AI and Robotics news articles in a concise, informative way:

Context from previous summaries:
%s

Articles to summarize:%s

Provide a comprehensive summary that:
1. Covers the key developments and their implications
2. Highlights the most important breakthroughs
3. Explains the significance for AI and robotics fields
4. Is engaging and well-structured for email delivery`, history, body.String())
}

func firstN(articles []domain.Article, n int) []domain.Article {
	if n > len(articles) {
		n = len(articles)
	}
	return append([]domain.Article(nil), articles[:n]...)
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (p *Planner) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Planner) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
