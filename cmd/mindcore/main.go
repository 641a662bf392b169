// mindcore relays Discord and Telegram chat messages to a conversational
// language model and posts the replies back.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/KouCha61ue/MIndCore/internal/channels"
	"github.com/KouCha61ue/MIndCore/internal/config"
	"github.com/KouCha61ue/MIndCore/internal/llm"
	. "github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/metrics"
	"github.com/KouCha61ue/MIndCore/internal/tokens"
)

var version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Path to the TOML config file (default: ./mindcore.toml if present)" short:"c" type:"path"`
	Env    string `help:"Path to a .env file; existing environment variables win" default:".env" type:"path"`
	Debug  bool   `help:"Enable debug logging" short:"d"`
	Trace  bool   `help:"Enable trace logging (includes silently dropped messages)"`
}

// CLI is the kong command tree.
type CLI struct {
	Globals

	Version     kong.VersionFlag `help:"Print version and exit"`
	Run         RunCmd           `cmd:"" default:"1" help:"Connect the configured transports and answer messages"`
	CheckConfig CheckConfigCmd   `cmd:"" name:"check-config" help:"Load and validate configuration, then exit"`
}

// RunCmd starts the relay and blocks until SIGINT or SIGTERM.
type RunCmd struct{}

func (r *RunCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	L_info("mindcore %s starting", version)

	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	L_info("llm: provider ready", "driver", provider.Name(), "model", provider.Model())

	m := metrics.New()
	// Load the token encoding off the first reply's path.
	go tokens.Get()

	mgr := channels.NewManager(channels.Deps{
		Provider:    provider,
		Gateway:     cfg.Gateway,
		Messages:    cfg.Messages,
		Metrics:     m,
		CountTokens: tokens.Estimate,
	})
	if err := m.StartReporter(ctx, cfg.Metrics.SummarySchedule, mgr.LogStatus); err != nil {
		return err
	}
	if err := mgr.StartAll(ctx, cfg); err != nil {
		return err
	}

	<-ctx.Done()
	L_info("mindcore: shutting down")
	mgr.StopAll()
	m.LogSummary()
	return nil
}

// CheckConfigCmd validates configuration without connecting anywhere.
type CheckConfigCmd struct{}

func (c *CheckConfigCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	fmt.Printf("config ok: driver=%s model=%s discord=%v telegram=%v busy_policy=%s timeout=%s\n",
		cfg.LLM.Driver, cfg.LLM.Model,
		cfg.Discord.IsEnabled(), cfg.Telegram.IsEnabled(),
		cfg.Gateway.BusyPolicy, cfg.Gateway.Timeout())
	return nil
}

// loadConfig loads .env, the config file and the environment, then
// initializes logging from the result.
func loadConfig(g *Globals) (*config.Config, error) {
	if err := config.LoadDotEnv(g.Env); err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}

	level, err := logLevel(cfg.Log.Level, g.Debug, g.Trace)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	Init(&Config{
		Level:      level,
		ShowCaller: level >= LevelDebug,
		Format:     cfg.Log.Format,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// logLevel resolves the configured level; command-line flags raise it.
func logLevel(configured string, debug, trace bool) (int, error) {
	level, err := ParseLevel(configured)
	if err != nil {
		return LevelInfo, err
	}
	if debug && level < LevelDebug {
		level = LevelDebug
	}
	if trace {
		level = LevelTrace
	}
	return level, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("mindcore"),
		kong.Description("Relay Discord and Telegram conversations to a language model."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		L_fatal("mindcore: %v", err)
	}
}
