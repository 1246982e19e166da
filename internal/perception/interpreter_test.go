package perception

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
)

// scriptedLLM answers intent and fact prompts separately.
type scriptedLLM struct {
	intent string
	facts  string
	err    error
	wait   time.Duration
}

func (s scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	if strings.HasPrefix(prompt, "Analyze") {
		return s.intent, nil
	}
	return s.facts, nil
}

func newInterpreter(llm scriptedLLM) *Interpreter {
	return New(llm, Config{Timeout: time.Second, Recipient: "me@example.com"}, nil)
}

func TestProcessParsesJSONWrappedInProse(t *testing.T) {
	t.Parallel()

	in := newInterpreter(scriptedLLM{
		intent: "Here is the classification:\n{\"intent\": \"Custom\", \"confidence\": 0.93, \"parameters\": {\"topic\": \"general_ai\"}}\nHope it helps.",
		facts:  "```json\n{\"facts\": [\"wants news\"], \"preferences\": {\"article_count\": 5, \"filename\": \"weekly.docx\"}}\n```",
	})

	p := in.Process(context.Background(), "Send me 5 articles in weekly.docx")
	assert.Equal(t, domain.IntentCustom, p.Intent.Intent)
	assert.InDelta(t, 0.93, p.Intent.Confidence, 1e-9)
	assert.Equal(t, "general_ai", p.Intent.Parameters["topic"])
	assert.Equal(t, "Send me 5 articles in weekly.docx", p.Intent.RawInput)

	assert.Equal(t, []string{"wants news"}, p.Facts.Facts)
	assert.Empty(t, p.Facts.Requirements)
	assert.NotNil(t, p.Facts.Constraints)
	assert.Equal(t, float64(5), p.Facts.Preferences["article_count"])
	assert.Equal(t, "weekly.docx", p.Facts.Preferences["filename"])
}

func TestProcessFallsBackOnProse(t *testing.T) {
	t.Parallel()

	in := newInterpreter(scriptedLLM{intent: "You want news.", facts: "Nothing to extract."})
	p := in.Process(context.Background(), "Fetch AI news and send me a summary")

	assert.Equal(t, domain.IntentFetchNews, p.Intent.Intent)
	assert.Equal(t, confidenceUnparsed, p.Intent.Confidence)
	assert.Equal(t, "ai_robotics", p.Intent.Parameters["topic"])
	assert.Equal(t, []string{"User wants AI news"}, p.Facts.Facts)
	assert.Equal(t, []string{"Fetch articles", "Generate summary"}, p.Facts.Requirements)
	assert.Equal(t, "me@example.com", p.Facts.Preferences["email"])
	assert.Equal(t, "ai_news_articles.docx", p.Facts.Preferences["filename"])
	assert.Equal(t, 3, p.Facts.Preferences["article_count"])
}

func TestProcessFallsBackOnErrorAndTimeout(t *testing.T) {
	t.Parallel()

	cases := map[string]scriptedLLM{
		"error":   {err: errors.New("quota exceeded")},
		"timeout": {intent: "{}", facts: "{}", wait: time.Second},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			in := New(llm, Config{Timeout: 20 * time.Millisecond}, nil)
			p := in.Process(context.Background(), "hello")
			assert.Equal(t, domain.IntentFetchNews, p.Intent.Intent)
			assert.Equal(t, confidenceFailed, p.Intent.Confidence)
			assert.Equal(t, "hello", p.Intent.RawInput)
			require.Contains(t, p.Facts.Preferences, "topics")
			assert.NotContains(t, p.Facts.Preferences, "email")
		})
	}
}

func TestProcessWithoutClientUsesDefaults(t *testing.T) {
	t.Parallel()

	p := New(nil, Config{}, nil).Process(context.Background(), "x")
	assert.Equal(t, confidenceFailed, p.Intent.Confidence)
	assert.Equal(t, 3, p.Facts.Preferences["article_count"])
}

func TestIntentShapeProblems(t *testing.T) {
	t.Parallel()

	in := newInterpreter(scriptedLLM{intent: `{"intent": "", "confidence": 0.9}`})
	assert.Equal(t, confidenceUnparsed, in.ExtractIntent(context.Background(), "x").Confidence)

	in = newInterpreter(scriptedLLM{intent: `{"intent": "fetch_news", "confidence": "high"}`})
	assert.Equal(t, confidenceUnparsed, in.ExtractIntent(context.Background(), "x").Confidence)

	in = newInterpreter(scriptedLLM{intent: `{"intent": "fetch_news", "confidence": 7}`})
	got := in.ExtractIntent(context.Background(), "x")
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "fetch_news", got.Intent)
}
