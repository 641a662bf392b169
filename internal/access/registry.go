// Package access decides which channels may receive generated replies.
package access

import (
	"context"
	"errors"
	"sort"
	"sync"

	. "github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

var (
	// ErrPermissionDenied means the actor lacks the channel-management privilege
	// or the privilege could not be confirmed.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTarget means the target is a direct conversation or a channel
	// whose identifier cannot be resolved.
	ErrInvalidTarget = errors.New("invalid target channel")
)

// Outcome is the result of a successful registry command. AlreadyRegistered
// and NotRegistered are soft outcomes: nothing changed, but nothing failed.
type Outcome int

const (
	Registered Outcome = iota + 1
	Deregistered
	AlreadyRegistered
	NotRegistered
)

func (o Outcome) String() string {
	switch o {
	case Registered:
		return "registered"
	case Deregistered:
		return "deregistered"
	case AlreadyRegistered:
		return "already_registered"
	case NotRegistered:
		return "not_registered"
	}
	return "unknown"
}

// Changed reports whether the outcome mutated the registry.
func (o Outcome) Changed() bool {
	return o == Registered || o == Deregistered
}

// Registry is the in-memory allow-list of channel ids, keyed by the
// canonical form of types.ChannelRef.ID. Direct conversations are always
// allowed and never stored. Contents live for the life of the process.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]struct{}
}

// NewRegistry creates a registry seeded with the configured channel ids.
// Entries that do not resolve to a channel id are skipped.
func NewRegistry(initial []string) *Registry {
	r := &Registry{channels: make(map[string]struct{}, len(initial))}
	for _, raw := range initial {
		id, ok := types.CanonicalChannelID(raw)
		if !ok {
			L_warn("access: ignoring unresolvable channel id", "channel", raw)
			continue
		}
		r.channels[id] = struct{}{}
	}
	return r
}

// IsAllowed reports whether generated replies may be sent to ref.
func (r *Registry) IsAllowed(ref types.ConversationRef) bool {
	if ref == nil {
		return false
	}
	if ref.IsDirect() {
		return true
	}
	ch, ok := ref.(types.ChannelRef)
	if !ok {
		return false
	}
	id, ok := ch.ID()
	if !ok {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, allowed := r.channels[id]
	return allowed
}

// Register adds the channel to the allow-list on behalf of actor.
func (r *Registry) Register(ctx context.Context, ref types.ConversationRef, actor types.Actor) (Outcome, error) {
	id, err := r.authorize(ctx, ref, actor)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[id]; exists {
		return AlreadyRegistered, nil
	}
	r.channels[id] = struct{}{}
	L_info("access: channel registered", "channel", id, "actor", actor.ID)
	return Registered, nil
}

// Deregister removes the channel from the allow-list on behalf of actor.
func (r *Registry) Deregister(ctx context.Context, ref types.ConversationRef, actor types.Actor) (Outcome, error) {
	id, err := r.authorize(ctx, ref, actor)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.channels[id]; !exists {
		return NotRegistered, nil
	}
	delete(r.channels, id)
	L_info("access: channel deregistered", "channel", id, "actor", actor.ID)
	return Deregistered, nil
}

// authorize rejects direct conversations, then checks the actor's privilege,
// then resolves the channel id.
func (r *Registry) authorize(ctx context.Context, ref types.ConversationRef, actor types.Actor) (string, error) {
	if ref == nil || ref.IsDirect() {
		return "", ErrInvalidTarget
	}

	ok, err := actor.CanManageChannels(ctx)
	if err != nil {
		L_warn("access: privilege check failed", "actor", actor.ID, "error", err)
		return "", ErrPermissionDenied
	}
	if !ok {
		return "", ErrPermissionDenied
	}

	ch, isChannel := ref.(types.ChannelRef)
	if !isChannel {
		return "", ErrInvalidTarget
	}
	id, resolved := ch.ID()
	if !resolved {
		return "", ErrInvalidTarget
	}
	return id, nil
}

// Channels returns the registered channel ids in lexical order.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
