package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

// Collaborators back the builtin tools. Nil collaborators leave their tools
// unregistered.
type Collaborators struct {
	News     ports.ArticleSource
	Content  ports.ContentFetcher
	Document ports.DocumentSink
	Mail     ports.MailTransport
}

// RegisterBuiltins installs the legacy and structured forms of every tool
// whose collaborator is present.
func RegisterBuiltins(reg *Registry, c Collaborators) {
	v := NewValidator()

	if c.News != nil {
		reg.Register(FetchNews, func(ctx context.Context, args map[string]any) (string, error) {
			url, err := stringArg(args, "url", false)
			if err != nil {
				return "", err
			}
			articles, err := c.News.FetchLatest(ctx, url)
			if err != nil {
				return "", err
			}
			return EncodeArticlePairs(articles), nil
		})
		reg.Register(FetchNews+v2Suffix, func(ctx context.Context, args map[string]any) (string, error) {
			var in FetchNewsInput
			if err := decodeArgs(v, args, &in); err != nil {
				return "", err
			}
			articles, err := c.News.FetchLatest(ctx, in.URL)
			if err != nil {
				return "", err
			}
			if articles == nil {
				articles = []domain.Article{}
			}
			return encode(FetchNewsOutput{Articles: articles})
		})
	}

	if c.Content != nil {
		reg.Register(FetchContent, func(ctx context.Context, args map[string]any) (string, error) {
			url, err := stringArg(args, "url", true)
			if err != nil {
				return "", err
			}
			return c.Content.FetchContent(ctx, url)
		})
		reg.Register(FetchContent+v2Suffix, func(ctx context.Context, args map[string]any) (string, error) {
			var in FetchContentInput
			if err := decodeArgs(v, args, &in); err != nil {
				return "", err
			}
			content, err := c.Content.FetchContent(ctx, in.URL)
			if err != nil {
				return "", err
			}
			return encode(FetchContentOutput{Content: content})
		})
	}

	if c.Document != nil {
		reg.Register(SaveDocument, func(ctx context.Context, args map[string]any) (string, error) {
			filename, err := stringArg(args, "filename", true)
			if err != nil {
				return "", err
			}
			articles, err := contentPairsArg(args, "articles")
			if err != nil {
				return "", err
			}
			return c.Document.Save(ctx, filename, articles)
		})
		reg.Register(SaveDocument+v2Suffix, func(ctx context.Context, args map[string]any) (string, error) {
			var in SaveDocumentInput
			if err := decodeArgs(v, args, &in); err != nil {
				return "", err
			}
			msg, err := c.Document.Save(ctx, in.Filename, in.Articles)
			if err != nil {
				return "", err
			}
			return encode(MessageOutput{Message: msg})
		})
	}

	if c.Mail != nil {
		send := func(ctx context.Context, subject, body, to string) (string, error) {
			if err := c.Mail.Send(ctx, domain.Email{Subject: subject, Body: body, To: to}); err != nil {
				return "", err
			}
			return fmt.Sprintf("Email sent successfully to %s", to), nil
		}
		reg.Register(SendEmail, func(ctx context.Context, args map[string]any) (string, error) {
			subject, err := stringArg(args, "subject", true)
			if err != nil {
				return "", err
			}
			body, err := stringArg(args, "body", true)
			if err != nil {
				return "", err
			}
			to, err := stringArg(args, "to_email", true)
			if err != nil {
				return "", err
			}
			return send(ctx, subject, body, to)
		})
		reg.Register(SendEmail+v2Suffix, func(ctx context.Context, args map[string]any) (string, error) {
			var in SendEmailInput
			if err := decodeArgs(v, args, &in); err != nil {
				return "", err
			}
			msg, err := send(ctx, in.Subject, in.Body, in.ToEmail)
			if err != nil {
				return "", err
			}
			return encode(MessageOutput{Message: msg})
		})
	}
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool output: %w", err)
	}
	return string(raw), nil
}
