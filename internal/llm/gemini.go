package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/KouCha61ue/MIndCore/internal/logging"
)

// GeminiProvider creates server-side chat sessions through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiProvider creates a Gemini provider from config.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logging.L_debug("gemini provider created", "model", cfg.Model, "temperature", cfg.Params.Temperature,
		"topP", cfg.Params.TopP, "topK", cfg.Params.TopK, "maxOutputTokens", cfg.Params.MaxOutputTokens)

	return &GeminiProvider{
		client: client,
		model:  cfg.Model,
		config: geminiConfig(cfg.SystemPrompt, cfg.Params),
	}, nil
}

func geminiConfig(systemPrompt string, p GenerationParams) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if p.Temperature > 0 {
		gc.Temperature = genai.Ptr(p.Temperature)
	}
	if p.TopP > 0 {
		gc.TopP = genai.Ptr(p.TopP)
	}
	if p.TopK > 0 {
		gc.TopK = genai.Ptr(float32(p.TopK))
	}
	if p.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = int32(p.MaxOutputTokens)
	}
	return gc
}

func (p *GeminiProvider) Name() string  { return DriverGemini }
func (p *GeminiProvider) Model() string { return p.model }

// NewConversation opens a chat with empty history. Creating a chat is local;
// no request is sent until the first Send.
func (p *GeminiProvider) NewConversation() (Conversation, error) {
	chat, err := p.client.Chats.Create(context.Background(), p.model, p.config, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &geminiConversation{chat: chat}, nil
}

type geminiConversation struct {
	chat *genai.Chat

	mu    sync.Mutex
	turns int
}

// Send delegates history bookkeeping to the SDK chat, which records the
// exchange only for valid responses.
func (c *geminiConversation) Send(ctx context.Context, prompt string) (string, error) {
	resp, err := c.chat.Send(ctx, genai.NewPartFromText(prompt))
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	c.mu.Lock()
	c.turns++
	c.mu.Unlock()
	return text, nil
}

func (c *geminiConversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns
}
