package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KouCha61ue/MIndCore/internal/llm"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

// Environment variables read by Load.
const (
	EnvDiscordToken        = "DISCORD_TOKEN"
	EnvAllowedChannelIDs   = "ALLOWED_CHANNEL_IDS"
	EnvTelegramToken       = "TELEGRAM_TOKEN"
	EnvTelegramAllowedChat = "TELEGRAM_ALLOWED_CHAT_IDS"
	EnvLLMDriver           = "MINDCORE_LLM_DRIVER"
	EnvLogLevel            = "MINDCORE_LOG_LEVEL"
)

// apiKeyEnv maps each driver to the variable holding its key.
var apiKeyEnv = map[string]string{
	llm.DriverGemini:    "GEMINI_KEY",
	llm.DriverOpenAI:    "OPENAI_API_KEY",
	llm.DriverAnthropic: "ANTHROPIC_API_KEY",
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	setString := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.LLM.Driver, EnvLLMDriver)
	setString(&cfg.Discord.Token, EnvDiscordToken)
	setString(&cfg.Telegram.Token, EnvTelegramToken)

	driver := strings.ToLower(cfg.LLM.Driver)
	if driver == "" {
		driver = llm.DriverGemini
	}
	if key, ok := apiKeyEnv[driver]; ok {
		setString(&cfg.LLM.APIKey, key)
	}

	if v, ok := lookup(EnvAllowedChannelIDs); ok && strings.TrimSpace(v) != "" {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAllowedChannelIDs, err)
		}
		cfg.Discord.AllowedChannelIDs = ids
	}
	if v, ok := lookup(EnvTelegramAllowedChat); ok && strings.TrimSpace(v) != "" {
		ids, err := ParseChatIDList(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTelegramAllowedChat, err)
		}
		cfg.Telegram.AllowedChatIDs = ids
	}
	return nil
}

// ParseIDList parses a comma-separated list of integer ids. Blank entries
// are skipped; any other non-integer entry is an error naming it.
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, item := range strings.Split(s, ",") {
		token := strings.TrimSpace(item)
		if token == "" {
			continue
		}
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id %q", token)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseChatIDList parses a comma-separated list of chat ids, each either
// "<chat>" or "<chat>:<topic>", into their canonical form.
func ParseChatIDList(s string) ([]string, error) {
	var ids []string
	for _, item := range strings.Split(s, ",") {
		token := strings.TrimSpace(item)
		if token == "" {
			continue
		}
		id, ok := types.CanonicalChannelID(token)
		if !ok {
			return nil, fmt.Errorf("invalid chat id %q", token)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
