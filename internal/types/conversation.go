package types

import (
	"strconv"
	"strings"
)

// ConversationRef identifies where a message was posted. It is either a
// DirectRef or a ChannelRef; transports resolve it once at the boundary.
type ConversationRef interface {
	// IsDirect reports whether this is a one-to-one conversation with the bot.
	IsDirect() bool
	String() string

	conversationRef()
}

// DirectRef is a one-to-one conversation between the bot and a single user.
type DirectRef struct {
	ChatID string // platform chat/channel id of the DM, used for sending
	UserID string
}

func (DirectRef) IsDirect() bool   { return true }
func (DirectRef) conversationRef() {}

func (r DirectRef) String() string { return "dm:" + r.UserID }

// ChannelRef is a multi-party channel that belongs to a guild (a Discord
// server, a Telegram group).
type ChannelRef struct {
	GuildID   string
	ChannelID string
}

func (ChannelRef) IsDirect() bool   { return false }
func (ChannelRef) conversationRef() {}

func (r ChannelRef) String() string {
	return "guild:" + r.GuildID + ":channel:" + r.ChannelID
}

// ID returns the canonical channel identifier used for allow-list lookups:
// a decimal integer, or "<chat>:<topic>" for a topic inside a chat. ok is
// false when the identifier cannot be resolved.
func (r ChannelRef) ID() (string, bool) {
	return CanonicalChannelID(r.ChannelID)
}

// CanonicalChannelID normalizes s to the form returned by ChannelRef.ID.
func CanonicalChannelID(s string) (string, bool) {
	head, topic, hasTopic := strings.Cut(strings.TrimSpace(s), ":")
	id, err := strconv.ParseInt(strings.TrimSpace(head), 10, 64)
	if err != nil {
		return "", false
	}
	out := strconv.FormatInt(id, 10)
	if !hasTopic {
		return out, true
	}
	thread, err := strconv.ParseInt(strings.TrimSpace(topic), 10, 64)
	if err != nil {
		return "", false
	}
	return out + ":" + strconv.FormatInt(thread, 10), true
}
