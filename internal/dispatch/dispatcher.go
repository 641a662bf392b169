// Package dispatch routes each inbound message to exactly one outbound
// action: a command acknowledgment, a generated reply, an apology, or
// nothing at all.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KouCha61ue/MIndCore/internal/access"
	"github.com/KouCha61ue/MIndCore/internal/commands"
	"github.com/KouCha61ue/MIndCore/internal/gateway"
	. "github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/metrics"
	"github.com/KouCha61ue/MIndCore/internal/session"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

// ErrInvalidContext is the cause logged when an administrative command is
// issued in a direct conversation.
var ErrInvalidContext = errors.New("dispatch: administrative command outside a channel")

// typingRefresh re-sends the typing indicator while a generation runs.
// Telegram shows it for 5s, Discord for 10s.
const typingRefresh = 4 * time.Second

// Outbound is the transport side of the dispatcher.
type Outbound interface {
	// Send posts a plain message into the conversation.
	Send(ctx context.Context, ref types.ConversationRef, text string) error
	// Reply answers msg as a threaded reply without pinging its author.
	Reply(ctx context.Context, msg *types.InboundMessage, text string) error
	// Typing shows a typing indicator. Advisory only.
	Typing(ctx context.Context, ref types.ConversationRef) error
}

// Outcome is the terminal state of one dispatch.
type Outcome string

const (
	OutcomeIgnored  Outcome = "ignored"  // automated sender
	OutcomeDropped  Outcome = "dropped"  // channel not allowed, silent
	OutcomeAdmin    Outcome = "admin"    // register/deregister acknowledged
	OutcomePrompted Outcome = "prompted" // empty body, asked for content
	OutcomeReset    Outcome = "reset"
	OutcomeReplied  Outcome = "replied"
	OutcomeFailed   Outcome = "failed" // generation failed, apology sent
)

// Options wires a Dispatcher.
type Options struct {
	Registry   *access.Registry
	Classifier *commands.Classifier // nil uses the default command words
	Sessions   *session.Store
	Gateway    *gateway.Gateway
	Outbound   Outbound
	Messages   Messages
	Metrics    *metrics.Manager // optional
}

// Dispatcher is safe for concurrent use; independent sessions never wait on
// each other.
type Dispatcher struct {
	registry   *access.Registry
	classifier *commands.Classifier
	sessions   *session.Store
	gateway    *gateway.Gateway
	out        Outbound
	messages   Messages
	metrics    *metrics.Manager
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = commands.NewClassifier()
	}
	return &Dispatcher{
		registry:   opts.Registry,
		classifier: classifier,
		sessions:   opts.Sessions,
		gateway:    opts.Gateway,
		out:        opts.Outbound,
		messages:   opts.Messages,
		metrics:    opts.Metrics,
	}
}

// Classifier returns the classifier, for transports that publish command menus.
func (d *Dispatcher) Classifier() *commands.Classifier { return d.classifier }

// Handle processes one inbound message.
func (d *Dispatcher) Handle(ctx context.Context, msg *types.InboundMessage) Outcome {
	reqID := uuid.New().String()[:8]
	outcome := d.handle(ctx, reqID, msg)
	d.metrics.RecordOutcome("dispatch", msg.Platform, string(outcome))
	return outcome
}

func (d *Dispatcher) handle(ctx context.Context, reqID string, msg *types.InboundMessage) Outcome {
	if msg.Author.Automated {
		return OutcomeIgnored
	}

	cmd := d.classifier.Classify(commands.Normalize(msg.Text, msg.SelfMentions))

	if cmd.Kind.IsAdmin() {
		text := d.admin(ctx, reqID, cmd.Kind, msg.Conversation, msg.Author, d.messages.Text)
		d.send(ctx, reqID, msg.Conversation, text)
		return OutcomeAdmin
	}

	if !d.registry.IsAllowed(msg.Conversation) {
		L_trace("dispatch: channel not allowed", "req", reqID, "conversation", msg.Conversation)
		return OutcomeDropped
	}

	if cmd.Kind == commands.KindEmpty {
		d.send(ctx, reqID, msg.Conversation, d.messages.EmptyPrompt)
		return OutcomePrompted
	}

	key := session.DeriveKey(msg.Conversation, msg.Author.ID)

	if cmd.Kind == commands.KindReset {
		d.sessions.Reset(key)
		L_info("dispatch: session reset", "req", reqID, "key", key)
		d.send(ctx, reqID, msg.Conversation, d.messages.ResetDone)
		return OutcomeReset
	}

	L_debug("dispatch: generating", "req", reqID, "key", key, "chars", len(cmd.Prompt))
	stopTyping := d.startTyping(ctx, msg.Conversation)
	res := <-d.gateway.GenerateAsync(ctx, key, cmd.Prompt)
	stopTyping()

	if res.Err != nil {
		L_error("dispatch: generation failed", "req", reqID, "key", key, "error", res.Err)
		d.send(ctx, reqID, msg.Conversation, d.messages.Apology)
		return OutcomeFailed
	}

	if msg.Conversation.IsDirect() {
		d.send(ctx, reqID, msg.Conversation, res.Text)
	} else if err := d.out.Reply(ctx, msg, res.Text); err != nil {
		L_warn("dispatch: reply failed", "req", reqID, "error", err)
	}
	return OutcomeReplied
}

// HandleAdmin runs a structured register/deregister command and returns
// the reply to show the invoking user. Registry effects are identical to
// the typed command words.
func (d *Dispatcher) HandleAdmin(ctx context.Context, kind commands.Kind, ref types.ConversationRef, actor types.Actor) string {
	reqID := uuid.New().String()[:8]
	text := d.admin(ctx, reqID, kind, ref, actor, d.messages.Command)
	d.metrics.RecordOutcome("dispatch", "command", string(OutcomeAdmin))
	return text
}

func (d *Dispatcher) admin(ctx context.Context, reqID string, kind commands.Kind, ref types.ConversationRef, actor types.Actor, r AdminReplies) string {
	if ref == nil || ref.IsDirect() {
		L_debug("dispatch: admin command rejected", "req", reqID, "kind", kind, "actor", actor.ID, "error", ErrInvalidContext)
		return r.InvalidContext
	}

	register := kind == commands.KindRegister
	var (
		out access.Outcome
		err error
	)
	if register {
		out, err = d.registry.Register(ctx, ref, actor)
	} else {
		out, err = d.registry.Deregister(ctx, ref, actor)
	}

	if err != nil {
		L_info("dispatch: admin command refused", "req", reqID, "kind", kind, "conversation", ref, "actor", actor.ID, "error", err)
		denied := errors.Is(err, access.ErrPermissionDenied)
		switch {
		case register && denied:
			return r.RegisterDenied
		case register:
			return r.RegisterInvalid
		case denied:
			return r.DeregisterDenied
		default:
			return r.DeregisterInvalid
		}
	}

	if !out.Changed() {
		L_debug("dispatch: admin command left registry unchanged", "req", reqID, "kind", kind, "conversation", ref, "outcome", out)
	}

	switch out {
	case access.Registered:
		return r.Registered
	case access.AlreadyRegistered:
		return r.AlreadyRegistered
	case access.Deregistered:
		return r.Deregistered
	default:
		return r.NotRegistered
	}
}

func (d *Dispatcher) send(ctx context.Context, reqID string, ref types.ConversationRef, text string) {
	if err := d.out.Send(ctx, ref, text); err != nil {
		L_warn("dispatch: send failed", "req", reqID, "conversation", ref, "error", err)
	}
}

// startTyping keeps the typing indicator alive until the returned func is called.
func (d *Dispatcher) startTyping(ctx context.Context, ref types.ConversationRef) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(typingRefresh)
		defer ticker.Stop()
		for {
			if err := d.out.Typing(ctx, ref); err != nil && ctx.Err() == nil {
				L_trace("dispatch: typing indicator failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
