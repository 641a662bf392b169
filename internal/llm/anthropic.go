package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/KouCha61ue/MIndCore/internal/logging"
)

// AnthropicProvider talks to the Anthropic Messages API.
// Also works with Anthropic-compatible APIs via BaseURL.
type AnthropicProvider struct {
	client       *anthropic.Client
	model        string
	systemPrompt string
	params       GenerationParams
}

// NewAnthropicProvider creates an Anthropic provider from config.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "(default)"
	}
	logging.L_debug("anthropic provider created", "model", cfg.Model, "baseURL", baseURL, "maxTokens", cfg.Params.MaxOutputTokens)

	return &AnthropicProvider{
		client:       &client,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		params:       cfg.Params,
	}, nil
}

func (p *AnthropicProvider) Name() string  { return DriverAnthropic }
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) NewConversation() (Conversation, error) {
	return newLocalConversation(p.complete), nil
}

func (p *AnthropicProvider) complete(ctx context.Context, history []Turn, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, p.request(history, prompt))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) request(history []Turn, prompt string) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, t := range history {
		if t.Role == RoleModel {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	maxTokens := int64(p.params.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if p.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.systemPrompt}}
	}
	// Newer models reject temperature and top_p together; temperature takes precedence.
	if p.params.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(p.params.Temperature))
	} else if p.params.TopP > 0 {
		params.TopP = anthropic.Float(float64(p.params.TopP))
	}
	if p.params.TopK > 0 {
		params.TopK = anthropic.Int(int64(p.params.TopK))
	}
	return params
}
