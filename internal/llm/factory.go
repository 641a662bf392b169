package llm

import (
	"context"
	"fmt"
	"strings"
)

// New creates a provider from config, dispatching on cfg.Driver.
func New(ctx context.Context, cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Driver) {
	case DriverGemini:
		return NewGeminiProvider(ctx, cfg)
	case DriverOpenAI:
		return NewOpenAIProvider(cfg)
	case DriverAnthropic:
		return NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider driver: %s", cfg.Driver)
	}
}
