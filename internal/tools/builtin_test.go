package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
)

type stubNews struct{ articles []domain.Article }

func (s stubNews) FetchLatest(_ context.Context, _ string) ([]domain.Article, error) {
	return s.articles, nil
}

type stubContent struct{}

func (stubContent) FetchContent(_ context.Context, url string) (string, error) {
	return "body of " + url, nil
}

type stubDocs struct{ saved []domain.ArticleContent }

func (s *stubDocs) Save(_ context.Context, filename string, articles []domain.ArticleContent) (string, error) {
	s.saved = articles
	return "Saved to " + filename, nil
}

type stubMail struct {
	sent []domain.Email
	err  error
}

func (s *stubMail) Send(_ context.Context, e domain.Email) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, e)
	return nil
}

func builtinRegistry(docs *stubDocs, mail *stubMail) *Registry {
	reg := NewRegistry()
	RegisterBuiltins(reg, Collaborators{
		News:     stubNews{articles: domain.SampleArticles()},
		Content:  stubContent{},
		Document: docs,
		Mail:     mail,
	})
	return reg
}

func TestRegisterBuiltinsExposesBothForms(t *testing.T) {
	t.Parallel()

	reg := builtinRegistry(&stubDocs{}, &stubMail{})
	assert.Equal(t, []string{
		"fetch_ai_news", "fetch_ai_news_v2",
		"fetch_article_content", "fetch_article_content_v2",
		"save_to_word", "save_to_word_v2",
		"send_email", "send_email_v2",
	}, reg.Names())

	partial := NewRegistry()
	RegisterBuiltins(partial, Collaborators{Content: stubContent{}})
	assert.Equal(t, []string{"fetch_article_content", "fetch_article_content_v2"}, partial.Names())
}

func TestFetchNewsForms(t *testing.T) {
	t.Parallel()

	reg := builtinRegistry(&stubDocs{}, &stubMail{})
	ctx := context.Background()

	raw, err := reg.Execute(ctx, FetchNews, map[string]any{})
	require.NoError(t, err)
	articles, err := DecodeArticlePairs(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.SampleArticles(), articles)

	raw, err = reg.Execute(ctx, FetchNews+v2Suffix, map[string]any{"url": "https://news.example"})
	require.NoError(t, err)
	var out FetchNewsOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Len(t, out.Articles, 3)

	_, err = reg.Execute(ctx, FetchNews+v2Suffix, map[string]any{"url": "not a url"})
	assert.Error(t, err)
	_, err = reg.Execute(ctx, FetchNews+v2Suffix, map[string]any{"uri": "https://news.example"})
	assert.Error(t, err, "unknown fields are rejected")
}

func TestSaveDocumentAcceptsWirePairs(t *testing.T) {
	t.Parallel()

	docs := &stubDocs{}
	reg := builtinRegistry(docs, &stubMail{})

	msg, err := reg.Execute(context.Background(), SaveDocument, map[string]any{
		"filename": "out.docx",
		"articles": []any{[]any{"T1", "C1"}, []any{"T2", "C2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Saved to out.docx", msg)
	assert.Equal(t, []domain.ArticleContent{{Title: "T1", Content: "C1"}, {Title: "T2", Content: "C2"}}, docs.saved)

	_, err = reg.Execute(context.Background(), SaveDocument, map[string]any{
		"filename": "out.docx",
		"articles": ContentPairs([]domain.ArticleContent{{Title: "T", Content: "C"}}),
	})
	require.NoError(t, err)

	_, err = reg.Execute(context.Background(), SaveDocument, map[string]any{
		"filename": "out.docx",
		"articles": []any{[]any{"only title"}},
	})
	assert.Error(t, err)

	_, err = reg.Execute(context.Background(), SaveDocument+v2Suffix, map[string]any{
		"filename": "out.docx",
		"articles": []any{},
	})
	assert.Error(t, err, "structured form needs at least one article")
}

func TestSendEmailForms(t *testing.T) {
	t.Parallel()

	mail := &stubMail{}
	reg := builtinRegistry(&stubDocs{}, mail)

	raw, err := reg.Execute(context.Background(), SendEmail+v2Suffix, map[string]any{
		"subject": "AI News & Robotics Summary", "body": "digest", "to_email": "me@example.com",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Email sent successfully to me@example.com"}`, raw)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, domain.Email{Subject: "AI News & Robotics Summary", Body: "digest", To: "me@example.com"}, mail.sent[0])

	_, err = reg.Execute(context.Background(), SendEmail, map[string]any{"subject": "s", "body": "b"})
	assert.ErrorContains(t, err, `missing argument "to_email"`)

	mail.err = errors.New("relay refused")
	_, err = reg.Execute(context.Background(), SendEmail, map[string]any{"subject": "s", "body": "b", "to_email": "x@y.z"})
	assert.ErrorContains(t, err, "relay refused")
}

func TestDecodeArticlePairsIsStrict(t *testing.T) {
	t.Parallel()

	_, err := DecodeArticlePairs(`[("A", "u1")]`)
	assert.Error(t, err)
	_, err = DecodeArticlePairs(`[["A"]]`)
	assert.Error(t, err)

	got, err := DecodeArticlePairs(` [["A","u1"],["B","u2"]] `)
	require.NoError(t, err)
	assert.Equal(t, []domain.Article{{Title: "A", URL: "u1"}, {Title: "B", URL: "u2"}}, got)
}

func TestRegistryExecuteErrors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("nil", nil)

	_, err := reg.Execute(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrToolNameEmpty)
	_, err = reg.Execute(context.Background(), "nil", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
	_, err = reg.Execute(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrToolUnregistered)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reg.Execute(ctx, "nil", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
