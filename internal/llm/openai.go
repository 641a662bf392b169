package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/KouCha61ue/MIndCore/internal/logging"
)

// OpenAIProvider talks to OpenAI-compatible chat completion APIs.
// Works with OpenAI, OpenRouter, LM Studio and others via BaseURL.
type OpenAIProvider struct {
	client       *openai.Client
	model        string
	systemPrompt string
	params       GenerationParams
}

// NewOpenAIProvider creates an OpenAI-compatible provider. The API key is
// optional for local servers.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "not-needed"
	}

	config := openai.DefaultConfig(apiKey)
	baseURL := cfg.BaseURL
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/v1") && !strings.HasSuffix(baseURL, "/v1/") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		config.BaseURL = baseURL
	}

	displayURL := baseURL
	if displayURL == "" {
		displayURL = "(default)"
	}
	if cfg.Params.TopK > 0 {
		logging.L_debug("openai: top_k is not supported by chat completions, ignoring", "topK", cfg.Params.TopK)
	}
	logging.L_debug("openai provider created", "model", cfg.Model, "baseURL", displayURL, "maxTokens", cfg.Params.MaxOutputTokens)

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(config),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		params:       cfg.Params,
	}, nil
}

func (p *OpenAIProvider) Name() string  { return DriverOpenAI }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) NewConversation() (Conversation, error) {
	return newLocalConversation(p.complete), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, history []Turn, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(history, prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w (no choices)", ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) request(history []Turn, prompt string) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if p.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.systemPrompt})
	}
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	return openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: p.params.Temperature,
		TopP:        p.params.TopP,
		MaxTokens:   p.params.MaxOutputTokens,
	}
}
