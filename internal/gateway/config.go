package gateway

import (
	"fmt"
	"time"
)

// BusyPolicy decides what a second request for a busy session does.
type BusyPolicy string

const (
	// BusyWait queues behind the in-flight generation, bounded by the timeout.
	BusyWait BusyPolicy = "wait"
	// BusyReject fails fast with ErrBusy.
	BusyReject BusyPolicy = "reject"
)

// Config holds generation gateway settings. When loaded through the config
// package, an unset or zero TimeoutSeconds takes the default of 60.
type Config struct {
	TimeoutSeconds int        `toml:"timeout_seconds"`
	BusyPolicy     BusyPolicy `toml:"busy_policy"` // "wait" (default) or "reject"
}

// Timeout returns the per-call timeout. A zero Config has no timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the busy policy and timeout.
func (c Config) Validate() error {
	switch c.BusyPolicy {
	case "", BusyWait, BusyReject:
	default:
		return fmt.Errorf("gateway.busy_policy must be %q or %q, got %q", BusyWait, BusyReject, c.BusyPolicy)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("gateway.timeout_seconds must not be negative")
	}
	return nil
}
