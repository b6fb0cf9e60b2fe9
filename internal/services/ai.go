package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"study-ai/internal/config"
	"study-ai/internal/models"
)

var (
	// ErrAIUnavailable is returned when no text generation provider is configured.
	ErrAIUnavailable = errors.New("ai integration is not configured")
)

const generateTimeout = 2 * time.Minute

// Generator turns extracted document text into one study artifact.
type Generator interface {
	Generate(ctx context.Context, kind models.ArtifactKind, text string) (string, error)
}

// NewGenerator picks the provider named by cfg.AIProvider. It returns
// ErrAIUnavailable when that provider has no API key.
func NewGenerator(cfg config.Config) (Generator, error) {
	if !cfg.HasAIKey() {
		return nil, fmt.Errorf("%s: %w", cfg.AIProvider, ErrAIUnavailable)
	}
	switch cfg.AIProvider {
	case config.ProviderAnthropic:
		return NewAnthropicGenerator(cfg.AnthropicKey, cfg.AnthropicModel)
	default:
		return NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIEndpoint), nil
	}
}

type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model, apiEndpoint string) *OpenAIGenerator {
	if apiKey == "" {
		return &OpenAIGenerator{}
	}
	cfg := openai.DefaultConfig(apiKey)
	if apiEndpoint != "" {
		cfg.BaseURL = apiEndpoint
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg), model: model}
}

func (g *OpenAIGenerator) disabled() bool {
	return g.client == nil || g.model == ""
}

func (g *OpenAIGenerator) Generate(ctx context.Context, kind models.ArtifactKind, text string) (string, error) {
	if g.disabled() {
		return "", ErrAIUnavailable
	}
	tmpl, userPrompt, err := promptFor(kind, text)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: tmpl.system},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.4,
		MaxTokens:   tmpl.maxTokens,
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("request openai %s: %w", kind, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// AnthropicGenerator talks to Claude through langchaingo.
type AnthropicGenerator struct {
	llm llms.Model
}

func NewAnthropicGenerator(apiKey, model string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, ErrAIUnavailable
	}
	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}
	return &AnthropicGenerator{llm: llm}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, kind models.ArtifactKind, text string) (string, error) {
	if g == nil || g.llm == nil {
		return "", ErrAIUnavailable
	}
	tmpl, userPrompt, err := promptFor(kind, text)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, tmpl.system),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	resp, err := g.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(tmpl.maxTokens))
	if err != nil {
		return "", fmt.Errorf("request anthropic %s: %w", kind, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("anthropic returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
