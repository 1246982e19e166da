package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"NewsAgent/internal/domain"
)

// EncodeArticlePairs renders articles in the legacy list form
// [["title", "url"], ...].
func EncodeArticlePairs(articles []domain.Article) string {
	pairs := make([][2]string, 0, len(articles))
	for _, a := range articles {
		pairs = append(pairs, [2]string{a.Title, a.URL})
	}
	raw, _ := json.Marshal(pairs)
	return string(raw)
}

// DecodeArticlePairs parses the legacy list form. Anything that is not a
// list of two-string lists is rejected.
func DecodeArticlePairs(raw string) ([]domain.Article, error) {
	var pairs [][]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &pairs); err != nil {
		return nil, fmt.Errorf("decode article list: %w", err)
	}
	articles := make([]domain.Article, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("article %d: expected [title, url], got %d fields", i, len(p))
		}
		articles = append(articles, domain.Article{Title: p[0], URL: p[1]})
	}
	return articles, nil
}

// ContentPairs renders article bodies as legacy [title, content] pairs.
func ContentPairs(articles []domain.ArticleContent) [][2]string {
	pairs := make([][2]string, 0, len(articles))
	for _, a := range articles {
		pairs = append(pairs, [2]string{a.Title, a.Content})
	}
	return pairs
}

// PlainText returns a legacy text reply unchanged.
func PlainText(raw string) (string, error) {
	return raw, nil
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing argument %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	if required && strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q is empty", key)
	}
	return s, nil
}

// contentPairsArg accepts [][2]string from in-process callers and
// []any{[]any{title, content}} from decoded wire payloads.
func contentPairsArg(args map[string]any, key string) ([]domain.ArticleContent, error) {
	switch v := args[key].(type) {
	case [][2]string:
		out := make([]domain.ArticleContent, 0, len(v))
		for _, p := range v {
			out = append(out, domain.ArticleContent{Title: p[0], Content: p[1]})
		}
		return out, nil
	case []any:
		out := make([]domain.ArticleContent, 0, len(v))
		for i, item := range v {
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("argument %q item %d: expected [title, content]", key, i)
			}
			title, ok1 := pair[0].(string)
			content, ok2 := pair[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("argument %q item %d: title and content must be strings", key, i)
			}
			out = append(out, domain.ArticleContent{Title: title, Content: content})
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("missing argument %q", key)
	default:
		return nil, fmt.Errorf("argument %q has unsupported type %T", key, v)
	}
}
