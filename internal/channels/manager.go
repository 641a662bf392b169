package channels

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/KouCha61ue/MIndCore/internal/channels/discord"
	"github.com/KouCha61ue/MIndCore/internal/channels/telegram"
	"github.com/KouCha61ue/MIndCore/internal/channels/types"
	"github.com/KouCha61ue/MIndCore/internal/config"
	"github.com/KouCha61ue/MIndCore/internal/dispatch"
	. "github.com/KouCha61ue/MIndCore/internal/logging"
)

// ManagedChannel is re-exported from types for convenience
type ManagedChannel = types.ManagedChannel

// ChannelStatus is re-exported from types for convenience
type ChannelStatus = types.ChannelStatus

// Transport is a chat platform adapter: a managed channel that can also
// deliver the dispatcher's replies.
type Transport interface {
	ManagedChannel
	dispatch.Outbound
	Attach(d *dispatch.Dispatcher)
}

// Builder constructs a transport. It may contact the platform and fail.
type Builder func() (Transport, error)

const (
	initialBackoff = 5 * time.Second
	maxBackoff     = 5 * time.Minute
)

// Manager owns the lifecycle of all communication channels
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	channels map[string]ManagedChannel
	relays   map[string]*Relay
	retrying map[string]context.CancelFunc

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewManager creates a new channel manager
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:           deps,
		channels:       make(map[string]ManagedChannel),
		relays:         make(map[string]*Relay),
		retrying:       make(map[string]context.CancelFunc),
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

// StartAll starts every enabled transport from config. A transport that
// fails to start is retried in the background until ctx is cancelled.
func (m *Manager) StartAll(ctx context.Context, cfg *config.Config) error {
	if cfg.Discord.IsEnabled() {
		token := cfg.Discord.Token
		m.Start(ctx, "discord", formatIDs(cfg.Discord.AllowedChannelIDs), func() (Transport, error) {
			return discord.New(token)
		})
	} else {
		L_info("discord: disabled by configuration")
	}

	if cfg.Telegram.IsEnabled() {
		token := cfg.Telegram.Token
		m.Start(ctx, "telegram", cfg.Telegram.AllowedChatIDs, func() (Transport, error) {
			return telegram.New(token)
		})
	} else {
		L_info("telegram: disabled by configuration")
	}
	return nil
}

func formatIDs(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

// Start builds and starts one transport, falling back to background retry
// with exponential backoff. allowed seeds the transport's access registry.
func (m *Manager) Start(ctx context.Context, name string, allowed []string, build Builder) {
	err := m.start(ctx, name, allowed, build)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		L_info("channel: start abandoned, shutting down", "channel", name)
		return
	}
	L_warn("channel: initial start failed, will retry in background", "channel", name, "error", err)
	m.startRetry(ctx, name, allowed, build)
}

func (m *Manager) start(ctx context.Context, name string, allowed []string, build Builder) error {
	began := time.Now()
	t, err := build()
	if err != nil {
		return err
	}
	relay := NewRelay(name, t, allowed, m.deps)
	t.Attach(relay.Dispatcher)

	if err := t.Start(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	if err := ctx.Err(); err != nil {
		m.mu.Unlock()
		if stopErr := t.Stop(); stopErr != nil {
			L_warn("channel: stop failed", "channel", name, "error", stopErr)
		}
		return err
	}
	m.channels[name] = t
	m.relays[name] = relay
	m.mu.Unlock()

	L_elapsed(began, "channel: bot ready and listening", "channel", name, "allowedChannels", len(allowed))
	return nil
}

func (m *Manager) startRetry(ctx context.Context, name string, allowed []string, build Builder) {
	m.mu.Lock()
	if _, ok := m.retrying[name]; ok {
		m.mu.Unlock()
		return
	}
	retryCtx, cancel := context.WithCancel(ctx)
	m.retrying[name] = cancel
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.retrying, name)
			m.mu.Unlock()
			cancel()
		}()

		backoff := m.initialBackoff
		attempt := 1

		for {
			select {
			case <-retryCtx.Done():
				L_info("channel: shutdown requested, stopping retry", "channel", name)
				return
			case <-time.After(backoff):
			}

			L_info("channel: retrying connection", "channel", name, "attempt", attempt, "backoff", backoff)

			if err := m.start(retryCtx, name, allowed, build); err != nil {
				if retryCtx.Err() != nil {
					L_info("channel: shutdown requested, stopping retry", "channel", name)
					return
				}
				L_warn("channel: connection failed", "channel", name, "error", err, "nextRetry", backoff)
				attempt++
				backoff *= 2
				if backoff > m.maxBackoff {
					backoff = m.maxBackoff
				}
				continue
			}

			L_info("channel: bot ready after retry", "channel", name, "attempts", attempt)
			return
		}
	}()
}

// StopAll gracefully shuts down all running channels
func (m *Manager) StopAll() {
	m.LogStatus()

	m.mu.Lock()
	for name, cancel := range m.retrying {
		cancel()
		delete(m.retrying, name)
	}
	channels := m.channels
	m.channels = make(map[string]ManagedChannel)
	m.relays = make(map[string]*Relay)
	m.mu.Unlock()

	for name, ch := range channels {
		if err := ch.Stop(); err != nil {
			L_warn("channel: stop failed", "channel", name, "error", err)
		}
	}
	L_info("channels: all stopped")
}

// Status returns the status of all running channels
func (m *Manager) Status() map[string]ChannelStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]ChannelStatus, len(m.channels))
	for name, ch := range m.channels {
		result[name] = ch.Status()
	}
	return result
}

// LogStatus logs one line per running channel, sorted by name. Channels
// reporting an error log at warn level.
func (m *Manager) LogStatus() {
	status := m.Status()
	m.mu.RLock()
	allowed := make(map[string]int, len(m.relays))
	for name, relay := range m.relays {
		allowed[name] = len(relay.Registry.Channels())
	}
	m.mu.RUnlock()

	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := status[name]
		var uptime time.Duration
		if !st.StartedAt.IsZero() {
			uptime = time.Since(st.StartedAt).Round(time.Second)
		}
		if st.Error != nil {
			L_warn("channel: status", "channel", name, "connected", st.Connected, "info", st.Info, "uptime", uptime, "allowedChannels", allowed[name], "error", st.Error)
			continue
		}
		L_info("channel: status", "channel", name, "connected", st.Connected, "info", st.Info, "uptime", uptime, "allowedChannels", allowed[name])
	}
}
