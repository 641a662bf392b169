package session

import "github.com/KouCha61ue/MIndCore/internal/types"

// DeriveKey computes the session key for a user in a conversation:
// "dm:<user>" for direct conversations and
// "guild:<guild>:channel:<channel>:user:<user>" for channel conversations.
func DeriveKey(ref types.ConversationRef, userID string) string {
	switch r := ref.(type) {
	case types.DirectRef:
		return "dm:" + userID
	case types.ChannelRef:
		return r.String() + ":user:" + userID
	}
	return "unknown:user:" + userID
}
