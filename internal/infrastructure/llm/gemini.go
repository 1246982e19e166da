package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"NewsAgent/internal/config"
	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/ports"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient implements ports.ChatClient on the Gemini API.
type GeminiClient struct {
	client       *genai.Client
	model        string
	systemPrompt string
}

var _ ports.ChatClient = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration. A non-empty endpoint
// overrides the API base URL.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, xerrors.New(xerrors.CodeConfiguration, "GEMINI_API_KEY is required for the gemini provider")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model, systemPrompt: cfg.SystemPrompt}, nil
}

// Complete sends a single-turn prompt and returns the concatenated text parts.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", xerrors.New(xerrors.CodeConfiguration, "gemini client is nil")
	}

	var genCfg *genai.GenerateContentConfig
	if sp := strings.TrimSpace(g.systemPrompt); sp != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(sp, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		genCfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}
