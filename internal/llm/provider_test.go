package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func testParams() GenerationParams {
	return GenerationParams{Temperature: 0.8, TopP: 0.95, TopK: 40, MaxOutputTokens: 1024}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"gemini ok", Config{Driver: "gemini", Model: "gemini-2.5-flash", APIKey: "k"}, ""},
		{"driver case", Config{Driver: "Anthropic", Model: "claude", APIKey: "k"}, ""},
		{"openai local no key", Config{Driver: "openai", Model: "m", BaseURL: "http://localhost:1234"}, ""},
		{"unknown driver", Config{Driver: "llama", Model: "m", APIKey: "k"}, "unknown llm driver"},
		{"missing model", Config{Driver: "gemini", APIKey: "k"}, "model is required"},
		{"missing key", Config{Driver: "gemini", Model: "m"}, "no API key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), Config{Driver: "nope", Model: "m", APIKey: "k"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenAIRequest(t *testing.T) {
	p, err := NewOpenAIProvider(Config{Driver: "openai", Model: "gpt-4o-mini", APIKey: "k",
		SystemPrompt: "be kind", Params: testParams()})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	req := p.request([]Turn{{RoleUser, "hi"}, {RoleModel, "hello"}}, "how are you")

	roles := []string{openai.ChatMessageRoleSystem, openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant, openai.ChatMessageRoleUser}
	if len(req.Messages) != len(roles) {
		t.Fatalf("got %d messages, want %d", len(req.Messages), len(roles))
	}
	for i, role := range roles {
		if req.Messages[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, req.Messages[i].Role, role)
		}
	}
	if req.Messages[3].Content != "how are you" {
		t.Errorf("last message = %q", req.Messages[3].Content)
	}
	if req.Temperature != 0.8 || req.TopP != 0.95 || req.MaxTokens != 1024 || req.Model != "gpt-4o-mini" {
		t.Errorf("request params not applied: %+v", req)
	}
}

func TestAnthropicRequest(t *testing.T) {
	p, err := NewAnthropicProvider(Config{Driver: "anthropic", Model: "claude-sonnet-4-5", APIKey: "k",
		SystemPrompt: "be kind", Params: testParams()})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	params := p.request([]Turn{{RoleUser, "hi"}, {RoleModel, "hello"}}, "again")

	if len(params.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(params.Messages))
	}
	if len(params.System) != 1 || params.System[0].Text != "be kind" {
		t.Errorf("system prompt not applied: %+v", params.System)
	}
	if params.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", params.MaxTokens)
	}
	if !params.Temperature.Valid() || params.TopP.Valid() {
		t.Error("temperature should be set and top_p left unset")
	}
	if !params.TopK.Valid() {
		t.Error("top_k should be set")
	}
}

func TestAnthropicRequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{Driver: "anthropic", Model: "m"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGeminiConfig(t *testing.T) {
	gc := geminiConfig("sys", testParams())
	if gc.SystemInstruction == nil || len(gc.SystemInstruction.Parts) != 1 || gc.SystemInstruction.Parts[0].Text != "sys" {
		t.Errorf("system instruction not set: %+v", gc.SystemInstruction)
	}
	if gc.Temperature == nil || *gc.Temperature != 0.8 {
		t.Errorf("Temperature = %v", gc.Temperature)
	}
	if gc.TopK == nil || *gc.TopK != 40 {
		t.Errorf("TopK = %v", gc.TopK)
	}
	if gc.MaxOutputTokens != 1024 {
		t.Errorf("MaxOutputTokens = %d", gc.MaxOutputTokens)
	}

	empty := geminiConfig("", GenerationParams{})
	if empty.SystemInstruction != nil || empty.Temperature != nil || empty.TopP != nil {
		t.Error("zero params should leave config fields unset")
	}
}
