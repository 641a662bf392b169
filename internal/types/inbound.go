// Package types contains shared types used across multiple packages.
package types

import "context"

// PrivilegeFunc reports whether an actor may manage which channels the bot
// answers in. Transports implement it with their own permission model.
type PrivilegeFunc func(ctx context.Context) (bool, error)

// Actor is the sender of an inbound message or command.
type Actor struct {
	ID        string
	Name      string
	Automated bool // bots, webhooks, system accounts

	privilege PrivilegeFunc
}

// NewActor creates an Actor. check may be nil for actors that can never
// manage channels.
func NewActor(id, name string, automated bool, check PrivilegeFunc) Actor {
	return Actor{ID: id, Name: name, Automated: automated, privilege: check}
}

// CanManageChannels resolves the actor's channel-management privilege.
// Resolution is lazy so transports only pay for a permission lookup when an
// administrative command actually needs it.
func (a Actor) CanManageChannels(ctx context.Context) (bool, error) {
	if a.privilege == nil {
		return false, nil
	}
	return a.privilege(ctx)
}

// InboundMessage is a chat message as delivered by a transport.
type InboundMessage struct {
	ID           string // platform message id
	Platform     string // "discord", "telegram"
	Conversation ConversationRef
	Author       Actor
	Text         string
	// SelfMentions are the literal tokens in Text that address the bot
	// (e.g. "<@123>", "@mindcore"). They are stripped before classification.
	SelfMentions []string
}
