package perception

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/reply"
)

const (
	confidenceUnparsed = 0.8
	confidenceFailed   = 0.5
)

// Config carries the defaults used when the model cannot be understood.
type Config struct {
	Timeout      time.Duration
	Recipient    string
	Filename     string
	ArticleCount int
	Topics       []string
}

// Interpreter turns a free-text request into an intent and facts.
type Interpreter struct {
	client ports.ChatClient
	cfg    Config
	logger *slog.Logger
}

// New builds an interpreter. A nil client always yields defaults.
func New(client ports.ChatClient, cfg Config, logger *slog.Logger) *Interpreter {
	if cfg.ArticleCount <= 0 {
		cfg.ArticleCount = 3
	}
	if cfg.Filename == "" {
		cfg.Filename = "ai_news_articles.docx"
	}
	if len(cfg.Topics) == 0 {
		cfg.Topics = []string{"ai", "robotics"}
	}
	return &Interpreter{client: client, cfg: cfg, logger: logger}
}

// Process interprets input. It never fails: unusable model output degrades
// to default intent and facts.
func (i *Interpreter) Process(ctx context.Context, input string) domain.Perception {
	return domain.Perception{
		Intent: i.ExtractIntent(ctx, input),
		Facts:  i.ExtractFacts(ctx, input),
	}
}

// ExtractIntent classifies the request.
func (i *Interpreter) ExtractIntent(ctx context.Context, input string) domain.Intent {
	r, err := reply.Ask(ctx, i.client, i.cfg.Timeout, intentPrompt(input))
	if err != nil {
		i.warn("intent extraction failed, using default", "error", err)
		return defaultIntent(input, confidenceFailed)
	}

	var intent domain.Intent
	switch r.Kind {
	case reply.Structured:
		if err := reply.Decode(r, &intent); err != nil || strings.TrimSpace(intent.Intent) == "" {
			i.warn("intent reply has unexpected shape, using default", "error", err)
			return defaultIntent(input, confidenceUnparsed)
		}
	default:
		i.warn("intent reply is not JSON, using default", "reply", truncate(r.Raw, 200))
		return defaultIntent(input, confidenceUnparsed)
	}

	intent.Intent = strings.ToLower(strings.TrimSpace(intent.Intent))
	intent.Confidence = clamp(intent.Confidence)
	if intent.Parameters == nil {
		intent.Parameters = defaultIntent(input, 0).Parameters
	}
	intent.RawInput = input
	i.debug("intent extracted", "intent", intent.Intent, "confidence", intent.Confidence)
	return intent
}

// ExtractFacts pulls facts, requirements, constraints and preferences.
func (i *Interpreter) ExtractFacts(ctx context.Context, input string) domain.Facts {
	r, err := reply.Ask(ctx, i.client, i.cfg.Timeout, factsPrompt(input))
	if err != nil {
		i.warn("fact extraction failed, using defaults", "error", err)
		return i.defaultFacts()
	}

	var facts domain.Facts
	switch r.Kind {
	case reply.Structured:
		if err := reply.Decode(r, &facts); err != nil {
			i.warn("facts reply has unexpected shape, using defaults", "error", err)
			return i.defaultFacts()
		}
	default:
		i.warn("facts reply is not JSON, using defaults", "reply", truncate(r.Raw, 200))
		return i.defaultFacts()
	}

	if facts.Facts == nil {
		facts.Facts = []string{}
	}
	if facts.Requirements == nil {
		facts.Requirements = []string{}
	}
	if facts.Constraints == nil {
		facts.Constraints = []string{}
	}
	if facts.Preferences == nil {
		facts.Preferences = map[string]any{}
	}
	i.debug("facts extracted", "facts", len(facts.Facts), "preferences", len(facts.Preferences))
	return facts
}

func defaultIntent(input string, confidence float64) domain.Intent {
	return domain.Intent{
		Intent:     domain.IntentFetchNews,
		Confidence: confidence,
		Parameters: map[string]any{
			"topic":  "ai_robotics",
			"action": "fetch",
			"target": "email",
		},
		RawInput: input,
	}
}

func (i *Interpreter) defaultFacts() domain.Facts {
	topics := make([]any, 0, len(i.cfg.Topics))
	for _, t := range i.cfg.Topics {
		topics = append(topics, t)
	}
	prefs := map[string]any{
		"filename":      i.cfg.Filename,
		"article_count": i.cfg.ArticleCount,
		"topics":        topics,
	}
	if i.cfg.Recipient != "" {
		prefs["email"] = i.cfg.Recipient
	}
	return domain.Facts{
		Facts:        []string{"User wants AI news"},
		Requirements: []string{"Fetch articles", "Generate summary"},
		Constraints:  []string{},
		Preferences:  prefs,
	}
}

func intentPrompt(input string) string {
	return fmt.Sprintf(`Analyze this user input and extract the intent.

User Input: %s

Return only a JSON object with this structure:
{
  "intent": "fetch_news|summarize|email|save_document|custom",
  "confidence": 0.95,
  "parameters": {
    "topic": "ai_robotics|general_ai|specific_topic",
    "action": "fetch|process|send|save",
    "target": "email|file|console"
  }
}`, input)
}

func factsPrompt(input string) string {
	return fmt.Sprintf(`Extract key facts and requirements from this input:

%s

Return only a JSON object with this structure:
{
  "facts": ["fact1", "fact2"],
  "requirements": ["requirement1", "requirement2"],
  "constraints": ["constraint1"],
  "preferences": {
    "email": "user@example.com",
    "filename": "articles.docx",
    "article_count": 3,
    "topics": ["ai", "robotics"]
  }
}
Omit preferences the user did not state.`, input)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (i *Interpreter) debug(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Debug(msg, args...)
	}
}

func (i *Interpreter) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
