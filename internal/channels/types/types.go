// Package types defines shared types for the channels package.
// This is a separate package to avoid circular imports between
// channels/manager.go and the individual channel implementations.
package types

import (
	"context"
	"time"
)

// ChannelStatus represents the current state of a managed channel
type ChannelStatus struct {
	Running   bool      // Whether the channel is currently running
	Connected bool      // Whether the platform connection is up
	Error     error     // Last error if any
	StartedAt time.Time // When the channel was started
	Info      string    // Human-readable status info (e.g., "@botname")
}

// ManagedChannel defines lifecycle management for channels.
// All channel implementations (discord, telegram) must implement this.
type ManagedChannel interface {
	// Name returns the channel's identifier
	Name() string

	// Start connects to the platform and begins delivering messages
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel
	Stop() error

	// Status returns the current channel status
	Status() ChannelStatus
}
