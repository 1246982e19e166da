package usecase

import (
	"context"
	"fmt"
	"strings"

	"NewsAgent/internal/domain"
	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/planner"
	"NewsAgent/internal/tools"
)

func (o *Orchestrator) fetchNews(ctx context.Context, st *runState, step domain.WorkflowStep) (string, map[string]any, error) {
	if o.planner.ShouldUseCache(st.memory) {
		if cached, ok := o.memory.CachedArticles(o.cacheSource, cacheMaxAge); ok && len(cached) > 0 {
			st.result.Articles = cached
			st.result.UsedCache = true
			debug(st.logger, "using cached articles", "count", len(cached))
			return domain.StatusSuccess, map[string]any{"source": "cache", "articles_count": len(cached)}, nil
		}
	}

	url := step.StringParam(domain.ParamURL, "")
	legacy := map[string]any{}
	if url != "" {
		legacy[domain.ParamURL] = url
	}

	out, err := withRetry(ctx, o.retryPolicy(step), func(ctx context.Context) (tools.FetchNewsOutput, error) {
		return tools.Invoke(ctx, st.session, tools.FetchNews, tools.FetchNewsInput{URL: url}, legacy, decodeNewsPairs)
	})
	if err != nil {
		return "", nil, err
	}
	if len(out.Articles) == 0 {
		return "", nil, xerrors.New(xerrors.CodeToolInvocation, "fetch_ai_news returned no articles", xerrors.WithRetryable(false))
	}

	st.result.Articles = out.Articles
	if err := o.memory.CacheArticles(out.Articles, o.cacheSource); err != nil {
		warn(st.logger, "cache articles failed", "error", err)
	}
	return domain.StatusSuccess, map[string]any{"source": "tool", "articles_count": len(out.Articles)}, nil
}

func (o *Orchestrator) selectArticles(ctx context.Context, st *runState, step domain.WorkflowStep) (string, map[string]any, error) {
	articles := st.result.Articles
	if len(articles) == 0 {
		if !o.sampleFallback {
			return domain.StatusSkipped, map[string]any{"reason": "no articles"}, nil
		}
		articles = domain.SampleArticles()
		st.result.Articles = articles
		info(st.logger, "no articles available, using sample articles")
	}

	count := step.IntParam(domain.ParamArticleCount, 0)
	selected := o.planner.SelectRelevantArticles(ctx, articles, st.memory, count)
	st.result.Selected = selected

	reason := step.StringParam(domain.ParamCriteria, planner.SelectionReason)
	if err := o.memory.RememberSelection(selected, reason); err != nil {
		warn(st.logger, "remember selection failed", "error", err)
	}
	return domain.StatusSuccess, map[string]any{"selected_count": len(selected), "titles": domain.Titles(selected)}, nil
}

func (o *Orchestrator) fetchContent(ctx context.Context, st *runState, step domain.WorkflowStep) (string, map[string]any, error) {
	if len(st.result.Selected) == 0 {
		return domain.StatusSkipped, map[string]any{"reason": "no selected articles"}, nil
	}

	contents := make([]domain.ArticleContent, 0, len(st.result.Selected))
	placeholders := 0
	for i, article := range st.result.Selected {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		debug(st.logger, "fetching article", "index", i+1, "of", len(st.result.Selected), "url", article.URL)

		out, err := withRetry(ctx, o.retryPolicy(step), func(ctx context.Context) (tools.FetchContentOutput, error) {
			return tools.Invoke(ctx, st.session, tools.FetchContent,
				tools.FetchContentInput{URL: article.URL},
				map[string]any{domain.ParamURL: article.URL},
				decodeContent)
		})
		if err != nil {
			warn(st.logger, "article fetch failed, using placeholder", "title", article.Title, "error", err)
			contents = append(contents, domain.ArticleContent{Title: article.Title, Content: domain.PlaceholderContent(article.Title)})
			placeholders++
			continue
		}
		contents = append(contents, domain.ArticleContent{Title: article.Title, Content: out.Content})
	}

	st.result.Contents = contents
	return domain.StatusSuccess, map[string]any{"articles_count": len(contents), "placeholders": placeholders}, nil
}

func (o *Orchestrator) saveDocument(ctx context.Context, st *runState, step domain.WorkflowStep) (string, map[string]any, error) {
	if len(st.result.Contents) == 0 {
		return domain.StatusSkipped, map[string]any{"reason": "no article content"}, nil
	}

	filename := step.StringParam(domain.ParamFilename, "ai_news_articles.docx")
	out, err := withRetry(ctx, o.retryPolicy(step), func(ctx context.Context) (tools.MessageOutput, error) {
		return tools.Invoke(ctx, st.session, tools.SaveDocument,
			tools.SaveDocumentInput{Filename: filename, Articles: st.result.Contents},
			map[string]any{"filename": filename, "articles": tools.ContentPairs(st.result.Contents)},
			decodeMessage)
	})
	if err != nil {
		return "", nil, err
	}
	return domain.StatusSuccess, map[string]any{"filename": filename, "message": out.Message}, nil
}

func (o *Orchestrator) summarize(ctx context.Context, st *runState, _ domain.WorkflowStep) (string, map[string]any, error) {
	if len(st.result.Contents) == 0 {
		return domain.StatusSkipped, map[string]any{"reason": "no article content"}, nil
	}

	st.result.Summary = o.digest(ctx, st)
	details := map[string]any{
		"summary_length": len(st.result.Summary),
		"articles_count": len(st.result.Contents),
	}
	return domain.StatusSuccess, details, nil
}

func (o *Orchestrator) sendEmail(ctx context.Context, st *runState, step domain.WorkflowStep) (string, map[string]any, error) {
	if len(st.result.Contents) == 0 {
		return "", nil, xerrors.New(xerrors.CodeTerminalStep, "no article content to send")
	}

	to := strings.TrimSpace(step.StringParam(domain.ParamToEmail, ""))
	if to == "" {
		return "", nil, xerrors.New(xerrors.CodeConfiguration, "no recipient configured (set NEWS_AGENT_RECIPIENT)")
	}
	subject := step.StringParam(domain.ParamSubject, "AI News & Robotics Summary")

	// Step 5's summary is reused; it is only rebuilt when missing.
	if planner.IsSummaryFailure(st.result.Summary) {
		st.result.Summary = o.digest(ctx, st)
	}
	body := st.result.Summary

	out, err := withRetry(ctx, o.retryPolicy(step), func(ctx context.Context) (tools.MessageOutput, error) {
		return tools.Invoke(ctx, st.session, tools.SendEmail,
			tools.SendEmailInput{Subject: subject, Body: body, ToEmail: to},
			map[string]any{"subject": subject, "body": body, "to_email": to},
			decodeMessage)
	})
	if err != nil {
		return "", nil, err
	}

	if err := o.memory.StoreEmailSent(domain.EmailRecord{
		Subject:       subject,
		ToEmail:       to,
		SummaryLength: len(body),
		ArticlesCount: len(st.result.Contents),
	}); err != nil {
		warn(st.logger, "store email record failed", "error", err)
	}
	return domain.StatusSuccess, map[string]any{"to_email": to, "message": out.Message}, nil
}

// digest asks the planner for a summary and falls back to the local
// numbered list when the model gives none.
func (o *Orchestrator) digest(ctx context.Context, st *runState) string {
	summary := o.planner.GenerateSummary(ctx, st.result.Contents, st.memory)
	if planner.IsSummaryFailure(summary) {
		info(st.logger, "using fallback summary")
		return planner.FallbackSummary(st.result.Contents)
	}
	return summary
}

func decodeNewsPairs(raw string) (tools.FetchNewsOutput, error) {
	articles, err := tools.DecodeArticlePairs(raw)
	if err != nil {
		return tools.FetchNewsOutput{}, fmt.Errorf("decode article list: %w", err)
	}
	return tools.FetchNewsOutput{Articles: articles}, nil
}

func decodeContent(raw string) (tools.FetchContentOutput, error) {
	text, err := tools.PlainText(raw)
	return tools.FetchContentOutput{Content: text}, err
}

func decodeMessage(raw string) (tools.MessageOutput, error) {
	text, err := tools.PlainText(raw)
	return tools.MessageOutput{Message: text}, err
}
