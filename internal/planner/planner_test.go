package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
)

type stubLLM struct {
	mu      sync.Mutex
	resp    string
	err     error
	wait    time.Duration
	prompts []string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.resp, s.err
}

var now = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newPlanner(llm *stubLLM) *Planner {
	cfg := Config{
		Timeout:   time.Second,
		NewsURL:   "https://www.artificialintelligence-news.com/artificial-intelligence-news/",
		Recipient: "default@example.com",
	}
	if llm == nil {
		return New(nil, cfg, nil, WithClock(func() time.Time { return now }))
	}
	return New(llm, cfg, nil, WithClock(func() time.Time { return now }))
}

func fetchPerception(input string, confidence float64) domain.Perception {
	return domain.Perception{Intent: domain.Intent{Intent: domain.IntentFetchNews, Confidence: confidence, RawInput: input}}
}

func TestCreatePlanForDefaultRequestWithEmptyMemory(t *testing.T) {
	t.Parallel()

	p := newPlanner(nil)
	summary := domain.MemorySummary{}
	plan := p.CreatePlan(fetchPerception("Fetch AI news and send me a summary", 0.8), summary)

	require.Len(t, plan.Steps, 6)
	assert.Equal(t, 6, plan.TotalSteps)
	assert.Equal(t, domain.PriorityNormal, plan.Priority)
	assert.Equal(t, "2-3 minutes", plan.EstimatedTime)
	assert.False(t, p.ShouldUseCache(summary))

	want := []domain.Action{
		domain.ActionFetchNews, domain.ActionSelectArticles, domain.ActionFetchContent,
		domain.ActionSaveDocument, domain.ActionSummarize, domain.ActionSendEmail,
	}
	for i, step := range plan.Steps {
		assert.Equal(t, i+1, step.Step)
		assert.Equal(t, want[i], step.Action)
	}
	assert.Equal(t, 3, plan.Steps[1].IntParam(domain.ParamArticleCount, 0))
	assert.Equal(t, "ai_news_articles.docx", plan.Steps[3].StringParam(domain.ParamFilename, ""))
	assert.Equal(t, "default@example.com", plan.Steps[5].StringParam(domain.ParamToEmail, ""))
	assert.Equal(t, "AI News & Robotics Summary", plan.Steps[5].StringParam(domain.ParamSubject, ""))
}

func TestCreatePlanCustomIntentOverridesParametersOnly(t *testing.T) {
	t.Parallel()

	p := newPlanner(nil)
	perception := domain.Perception{
		Intent: domain.Intent{Intent: domain.IntentCustom, Confidence: 0.6, RawInput: "five articles please"},
		Facts: domain.Facts{Preferences: map[string]any{
			"article_count": float64(5),
			"filename":      "weekly.docx",
			"email":         "boss@example.com",
		}},
	}
	plan := p.CreatePlan(perception, domain.MemorySummary{})

	require.Len(t, plan.Steps, 6)
	assert.Equal(t, 5, plan.Steps[1].IntParam(domain.ParamArticleCount, 0))
	assert.Equal(t, "weekly.docx", plan.Steps[3].StringParam(domain.ParamFilename, ""))
	assert.Equal(t, "boss@example.com", plan.Steps[5].StringParam(domain.ParamToEmail, ""))

	// Preferences are ignored for non-custom intents.
	perception.Intent.Intent = domain.IntentFetchNews
	plan = p.CreatePlan(perception, domain.MemorySummary{})
	assert.Equal(t, 3, plan.Steps[1].IntParam(domain.ParamArticleCount, 0))
}

func TestCreatePlanCapsModelArticleCount(t *testing.T) {
	t.Parallel()

	perception := domain.Perception{
		Intent: domain.Intent{Intent: domain.IntentCustom, Confidence: 0.6, RawInput: "every article ever"},
		Facts:  domain.Facts{Preferences: map[string]any{"article_count": 1e12}},
	}
	plan := newPlanner(nil).CreatePlan(perception, domain.MemorySummary{})
	assert.Equal(t, 10, plan.Steps[1].IntParam(domain.ParamArticleCount, 0))
}

func TestShouldUseCache(t *testing.T) {
	t.Parallel()

	p := newPlanner(nil)
	at := func(d time.Duration) domain.MemorySummary {
		last := now.Add(-d)
		return domain.MemorySummary{SystemState: domain.SystemState{LastRun: &last}}
	}
	assert.True(t, p.ShouldUseCache(at(5*time.Hour)))
	assert.False(t, p.ShouldUseCache(at(6*time.Hour)))
	assert.False(t, p.ShouldUseCache(at(48*time.Hour)))
}

func TestDeterminePriority(t *testing.T) {
	t.Parallel()

	p := newPlanner(nil)
	cases := []struct {
		input      string
		confidence float64
		want       domain.Priority
	}{
		{"Fetch AI news", 0.8, domain.PriorityNormal},
		{"Fetch AI news", 0.81, domain.PriorityHigh},
		{"This is URGENT", 0.1, domain.PriorityHigh},
		{"send it asap", 0.1, domain.PriorityHigh},
		{"Critical update", 0.1, domain.PriorityHigh},
		{"weekly digest", 0.5, domain.PriorityNormal},
	}
	for _, tc := range cases {
		got := p.DeterminePriority(fetchPerception(tc.input, tc.confidence), domain.MemorySummary{})
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestOptimizeAddsRetriesToCriticalSteps(t *testing.T) {
	t.Parallel()

	p := newPlanner(nil)
	plan := p.CreatePlan(fetchPerception("x", 0.5), domain.MemorySummary{})

	healthy := domain.MemorySummary{SystemState: domain.SystemState{SuccessfulRuns: 3, FailedRuns: 1}}
	assert.Equal(t, plan, p.Optimize(plan, healthy))

	shaky := domain.MemorySummary{SystemState: domain.SystemState{SuccessfulRuns: 1, FailedRuns: 1}}
	optimized := p.Optimize(plan, shaky)
	for _, step := range optimized.Steps {
		switch step.Action {
		case domain.ActionFetchNews, domain.ActionSendEmail:
			assert.Equal(t, 3, step.RetryCount, step.Action)
			assert.Equal(t, 5, step.RetryDelay, step.Action)
		default:
			assert.Zero(t, step.RetryCount, step.Action)
		}
	}
	assert.Zero(t, plan.Steps[0].RetryCount, "input plan is not mutated")
}

var fourArticles = []domain.Article{
	{Title: "A", URL: "u1"}, {Title: "B", URL: "u2"}, {Title: "C", URL: "u3"}, {Title: "D", URL: "u4"},
}

func TestSelectRelevantArticlesFiltersUnknownTitles(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{resp: `I picked: {"selected": [{"title": "B", "url": "u2"}, {"title": "Z", "url": "u9"}]}`}
	p := newPlanner(llm)

	summary := domain.MemorySummary{
		RecentReasons: []string{"r1", "r2", "r3", "r4"},
		Preferences:   map[string]any{"topics": []any{"ai"}},
	}
	got := p.SelectRelevantArticles(context.Background(), fourArticles, summary, 3)
	assert.Equal(t, []domain.Article{{Title: "B", URL: "u2"}}, got)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Previous selection reasons: r2; r3; r4")
	assert.Contains(t, llm.prompts[0], "User preferences: topics=[ai]")
}

func TestSelectRelevantArticlesUsesOriginalURLAndLimit(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{resp: `{"selected": [{"title": "D", "url": "wrong"}, {"title": "D"}, {"title": "A"}, {"title": "C"}, {"title": "B"}]}`}
	got := newPlanner(llm).SelectRelevantArticles(context.Background(), fourArticles, domain.MemorySummary{}, 3)
	assert.Equal(t, []domain.Article{{Title: "D", URL: "u4"}, {Title: "A", URL: "u1"}, {Title: "C", URL: "u3"}}, got)
}

func TestSelectRelevantArticlesFallsBackToFirstThree(t *testing.T) {
	t.Parallel()

	first3 := fourArticles[:3]
	cases := map[string]*stubLLM{
		"prose":     {resp: "B and C look great"},
		"empty":     {resp: `{"selected": [{"title": "Z"}]}`},
		"bad shape": {resp: `{"selected": "B"}`},
		"error":     {err: errors.New("boom")},
		"timeout":   {resp: `{"selected": [{"title": "B"}]}`, wait: time.Second},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := New(llm, Config{Timeout: 20 * time.Millisecond}, nil)
			assert.Equal(t, first3, p.SelectRelevantArticles(context.Background(), fourArticles, domain.MemorySummary{}, 0))
		})
	}
}

func TestGenerateSummaryTruncatesBodies(t *testing.T) {
	t.Parallel()

	llm := &stubLLM{resp: "  Big week for robots.  "}
	p := newPlanner(llm)
	long := strings.Repeat("x", 600)
	got := p.GenerateSummary(context.Background(), []domain.ArticleContent{{Title: "T", Content: long}},
		domain.MemorySummary{RecentSubjects: []string{"Last week"}})

	assert.Equal(t, "Big week for robots.", got)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], strings.Repeat("x", 500)+"...")
	assert.NotContains(t, llm.prompts[0], strings.Repeat("x", 501))
	assert.Contains(t, llm.prompts[0], "Previously sent: Last week")
}

func TestGenerateSummaryFailureAndFallback(t *testing.T) {
	t.Parallel()

	articles := []domain.ArticleContent{
		{Title: "Robots learn to cook", Content: strings.Repeat("a", 300)},
		{Title: "New model released", Content: "short"},
	}
	for _, llm := range []*stubLLM{{err: errors.New("down")}, {resp: "   "}} {
		got := newPlanner(llm).GenerateSummary(context.Background(), articles, domain.MemorySummary{})
		assert.Equal(t, SummaryFailed, got)
		assert.True(t, IsSummaryFailure(got))
	}

	fallback := FallbackSummary(articles)
	assert.Contains(t, fallback, "Fallback")
	assert.Contains(t, fallback, "1. Robots learn to cook\n   "+strings.Repeat("a", 220)+"...")
	assert.NotContains(t, fallback, strings.Repeat("a", 221))
	assert.Contains(t, fallback, "2. New model released\n   short...")
	assert.False(t, IsSummaryFailure(fallback))
}

func TestCreateRecoveryPlan(t *testing.T) {
	t.Parallel()

	p := newPlanner(nil)
	plan := p.CreatePlan(fetchPerception("x", 0.5), domain.MemorySummary{})
	for step := 1; step <= 6; step++ {
		rp := p.CreateRecoveryPlan(errors.New("failed"), step, plan)
		assert.Equal(t, step, rp.FailedStep)
		assert.Equal(t, "failed", rp.Error)
		assert.NotEmpty(t, rp.RecoverySteps)
		assert.Equal(t, step != 6, rp.CanContinue, "step %d", step)
	}

	rp := p.CreateRecoveryPlan(errors.New("x"), 1, plan)
	assert.Equal(t, []string{"Try alternative news sources", "Use cached articles if available", "Generate sample articles for testing"}, rp.RecoverySteps)

	rp = p.CreateRecoveryPlan(nil, 9, plan)
	assert.True(t, rp.CanContinue)
	assert.Empty(t, rp.Error)
}

func TestSelectRelevantArticlesClampsCountToListing(t *testing.T) {
	t.Parallel()

	const huge = 1_000_000_000_000

	fallback := newPlanner(nil).SelectRelevantArticles(context.Background(), fourArticles, domain.MemorySummary{}, huge)
	assert.Equal(t, fourArticles, fallback)

	llm := &stubLLM{resp: `{"selected": [{"title": "C"}, {"title": "A"}]}`}
	got := newPlanner(llm).SelectRelevantArticles(context.Background(), fourArticles, domain.MemorySummary{}, huge)
	assert.Equal(t, []domain.Article{{Title: "C", URL: "u3"}, {Title: "A", URL: "u1"}}, got)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "select the 4 most relevant")
}
