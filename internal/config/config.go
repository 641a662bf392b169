// Package config loads mindcore configuration from a TOML file, the
// process environment and built-in defaults, in that order of precedence
// (environment wins over the file, the file wins over defaults).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/KouCha61ue/MIndCore/internal/dispatch"
	"github.com/KouCha61ue/MIndCore/internal/gateway"
	"github.com/KouCha61ue/MIndCore/internal/llm"
	"github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/metrics"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "mindcore.toml"

// Config is the merged mindcore configuration.
type Config struct {
	Log      LogConfig         `toml:"log"`
	LLM      llm.Config        `toml:"llm"`
	Gateway  gateway.Config    `toml:"gateway"`
	Discord  DiscordConfig     `toml:"discord"`
	Telegram TelegramConfig    `toml:"telegram"`
	Messages dispatch.Messages `toml:"messages"`
	Metrics  MetricsConfig     `toml:"metrics"`
}

// MetricsConfig configures the periodic metrics summary.
type MetricsConfig struct {
	SummarySchedule string `toml:"summary_schedule"` // cron spec, or "off"
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `toml:"level"`  // trace, debug, info, warn, error
	Format string `toml:"format"` // text (default), logfmt, json
}

// DiscordConfig configures the Discord transport.
type DiscordConfig struct {
	Enabled           *bool   `toml:"enabled"` // nil: enabled when a token is set
	Token             string  `toml:"token"`
	AllowedChannelIDs []int64 `toml:"allowed_channel_ids"`
}

// IsEnabled reports whether the Discord transport should start.
func (d DiscordConfig) IsEnabled() bool {
	if d.Enabled != nil {
		return *d.Enabled
	}
	return d.Token != ""
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Enabled        *bool   `toml:"enabled"` // nil: enabled when a token is set
	Token          string  `toml:"token"`
	// Entries are a chat id ("-1001234") or a forum topic within a chat
	// ("-1001234:3"). A bare chat id does not cover the chat's topics.
	AllowedChatIDs []string `toml:"allowed_chat_ids"`
}

// IsEnabled reports whether the Telegram transport should start.
func (t TelegramConfig) IsEnabled() bool {
	if t.Enabled != nil {
		return *t.Enabled
	}
	return t.Token != ""
}

// LoadDotEnv loads KEY=value pairs from path into the environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Load reads path (DefaultPath when empty), applies environment overrides
// and fills unset fields from Defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
		for _, key := range md.Undecoded() {
			logging.L_warn("config: unknown key ignored", "key", key.String(), "file", path)
		}
		logging.L_debug("config: loaded file", "path", path)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		logging.L_debug("config: no config file, using environment and defaults", "path", path)
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	driver := strings.ToLower(cfg.LLM.Driver)
	if driver == "" {
		driver = llm.DriverGemini
	}
	cfg.LLM.Driver = driver
	if err := mergo.Merge(cfg, Defaults(driver)); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

// Validate reports configuration that must stop startup: missing secrets,
// no enabled transport, unknown driver or level.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if !c.Discord.IsEnabled() && !c.Telegram.IsEnabled() {
		return fmt.Errorf("no transport configured: set DISCORD_TOKEN or TELEGRAM_TOKEN")
	}
	if c.Discord.IsEnabled() && c.Discord.Token == "" {
		return fmt.Errorf("discord is enabled but DISCORD_TOKEN is not set")
	}
	if c.Telegram.IsEnabled() && c.Telegram.Token == "" {
		return fmt.Errorf("telegram is enabled but TELEGRAM_TOKEN is not set")
	}
	for _, id := range c.Telegram.AllowedChatIDs {
		if _, ok := types.CanonicalChannelID(id); !ok {
			return fmt.Errorf("telegram.allowed_chat_ids: invalid chat id %q", id)
		}
	}
	if err := c.LLM.Validate(); err != nil {
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w (set %s)", err, apiKeyEnv[c.LLM.Driver])
		}
		return err
	}
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if !metrics.Disabled(c.Metrics.SummarySchedule) {
		if _, err := metrics.ParseSchedule(c.Metrics.SummarySchedule); err != nil {
			return fmt.Errorf("metrics.summary_schedule: %w", err)
		}
	}
	return nil
}
