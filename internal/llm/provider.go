// Package llm is the boundary to the remote completion service.
//
// A Provider is built once at startup with a fixed system prompt and
// generation parameters. Each session owns one Conversation, which carries
// the accumulated dialogue history for that session.
package llm

import "context"

// Provider creates conversations against one completion backend.
// Implementations: GeminiProvider, OpenAIProvider, AnthropicProvider
type Provider interface {
	Name() string  // driver name, e.g. "gemini"
	Model() string // model id sent with every request

	// NewConversation returns a conversation with empty history.
	NewConversation() (Conversation, error)
}

// Conversation is the opaque per-session state exchanged with the backend.
// Implementations are not safe for concurrent Send calls; the gateway
// serializes them per session.
type Conversation interface {
	// Send submits prompt plus the accumulated history and returns the
	// model's reply. History is extended by the prompt/reply pair only when
	// Send succeeds.
	Send(ctx context.Context, prompt string) (string, error)

	// Turns is the number of completed prompt/reply exchanges.
	Turns() int
}

// GenerationParams is the sampling bundle sent with every request.
type GenerationParams struct {
	Temperature     float32 `toml:"temperature"`
	TopP            float32 `toml:"top_p"`
	TopK            int     `toml:"top_k"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
}

// Role of a turn in locally kept history.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of locally kept history.
type Turn struct {
	Role Role
	Text string
}
