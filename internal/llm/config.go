package llm

import (
	"fmt"
	"strings"
)

// Driver names accepted by New.
const (
	DriverGemini    = "gemini"
	DriverOpenAI    = "openai"
	DriverAnthropic = "anthropic"
)

// Config selects and configures the completion backend.
type Config struct {
	Driver       string           `toml:"driver"`   // "gemini", "openai", "anthropic"
	Model        string           `toml:"model"`    // e.g. "gemini-2.5-flash"
	APIKey       string           `toml:"api_key"`  // usually supplied via environment
	BaseURL      string           `toml:"base_url"` // OpenAI-compatible or Anthropic-compatible endpoints
	SystemPrompt string           `toml:"system_prompt"`
	Params       GenerationParams `toml:"params"`
}

// Validate checks the fields every driver needs.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Driver) {
	case DriverGemini, DriverOpenAI, DriverAnthropic:
	default:
		return fmt.Errorf("unknown llm driver %q (want gemini, openai or anthropic)", c.Driver)
	}
	if c.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	// OpenAI-compatible local servers run without a key.
	if c.APIKey == "" && !(strings.ToLower(c.Driver) == DriverOpenAI && c.BaseURL != "") {
		return fmt.Errorf("no API key configured for llm driver %q", c.Driver)
	}
	return nil
}
