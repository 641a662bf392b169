// Package telegram provides the Telegram bot adapter for mindcore.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	chtypes "github.com/KouCha61ue/MIndCore/internal/channels/types"
	"github.com/KouCha61ue/MIndCore/internal/commands"
	"github.com/KouCha61ue/MIndCore/internal/dispatch"
	. "github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

// maxTelegramMessage stays under Telegram's 4096 character limit.
const maxTelegramMessage = 4000

// Bot represents the Telegram bot. It implements dispatch.Outbound and
// types.ManagedChannel.
type Bot struct {
	bot        *tele.Bot
	dispatcher *dispatch.Dispatcher

	mu        sync.RWMutex
	startedAt time.Time
	running   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Telegram bot. It contacts the Bot API to resolve the
// bot's identity, so it fails when the token is rejected.
func New(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token not configured")
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	L_debug("telegram: creating bot", "tokenLength", len(token))

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	L_info("telegram: connected",
		"bot", "@"+bot.Me.Username,
		"name", bot.Me.FirstName,
		"id", bot.Me.ID,
		"canJoinGroups", bot.Me.CanJoinGroups,
	)

	return &Bot{bot: bot}, nil
}

// Attach sets the dispatcher that handles inbound messages. Must be called
// before Start.
func (b *Bot) Attach(d *dispatch.Dispatcher) {
	b.dispatcher = d
}

// Name returns the channel name
func (b *Bot) Name() string {
	return "telegram"
}

// Start registers handlers and starts polling.
func (b *Bot) Start(ctx context.Context) error {
	if b.dispatcher == nil {
		return errors.New("telegram: no dispatcher attached")
	}
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.bot.Handle(tele.OnText, b.handleMessage)
	if err := b.bot.SetCommands(menuCommands(b.dispatcher.Classifier().Tokens())); err != nil {
		L_warn("telegram: failed to publish command menu", "error", err)
	}

	L_info("telegram: starting polling", "bot", "@"+b.bot.Me.Username)
	go b.bot.Start()

	b.mu.Lock()
	b.running = true
	b.startedAt = time.Now()
	b.mu.Unlock()
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() error {
	L_info("stopping telegram bot")
	if b.cancel != nil {
		b.cancel()
	}
	b.bot.Stop()

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
	return nil
}

// Status returns the current channel status
func (b *Bot) Status() chtypes.ChannelStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return chtypes.ChannelStatus{
		Running:   b.running,
		Connected: b.running,
		StartedAt: b.startedAt,
		Info:      "@" + b.bot.Me.Username,
	}
}

func (b *Bot) handleMessage(c tele.Context) error {
	msg := c.Message()
	if msg == nil || c.Sender() == nil {
		return nil
	}

	in := b.inbound(msg)
	L_trace("telegram: message received", "conversation", in.Conversation, "author", in.Author.ID, "bot", in.Author.Automated)
	b.dispatcher.Handle(b.ctx, in)
	return nil
}

// inbound converts a telebot message at the transport boundary.
func (b *Bot) inbound(m *tele.Message) *types.InboundMessage {
	sender, chat := m.Sender, m.Chat
	privilege := func(context.Context) (bool, error) {
		member, err := b.bot.ChatMemberOf(chat, sender)
		if err != nil {
			return false, err
		}
		return canManage(member), nil
	}

	name := sender.Username
	if name == "" {
		name = strings.TrimSpace(sender.FirstName + " " + sender.LastName)
	}

	return &types.InboundMessage{
		ID:           strconv.Itoa(m.ID),
		Platform:     "telegram",
		Conversation: conversationRef(chat, m.ThreadID, sender.ID),
		Author:       types.NewActor(strconv.FormatInt(sender.ID, 10), name, sender.IsBot, privilege),
		Text:         m.Text,
		SelfMentions: selfMentions(m.Text, b.bot.Me.Username),
	}
}

// conversationRef maps a chat to a conversation. Groups are channels whose
// guild is the chat; a forum topic is its own channel within that guild,
// identified as "<chat>:<topic>" since topic ids are only unique per chat.
func conversationRef(chat *tele.Chat, threadID int, userID int64) types.ConversationRef {
	chatID := strconv.FormatInt(chat.ID, 10)
	if chat.Type == tele.ChatPrivate {
		return types.DirectRef{ChatID: chatID, UserID: strconv.FormatInt(userID, 10)}
	}
	ref := types.ChannelRef{GuildID: chatID, ChannelID: chatID}
	if chat.IsForum && threadID != 0 {
		ref.ChannelID = chatID + ":" + strconv.Itoa(threadID)
	}
	return ref
}

// canManage reports whether a member may change the chat's bot access:
// the creator, or an administrator allowed to manage the chat or its info.
func canManage(member *tele.ChatMember) bool {
	if member == nil {
		return false
	}
	switch member.Role {
	case tele.Creator:
		return true
	case tele.Administrator:
		return member.Rights.CanManageChat || member.Rights.CanChangeInfo
	}
	return false
}

// selfMentions returns each "@username" in text, as written, including the
// "/join@username" command form. Usernames are ASCII and case-insensitive.
func selfMentions(text, username string) []string {
	if username == "" {
		return nil
	}
	mention := strings.ToLower("@" + username)
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		if strings.Contains(text, "@"+username) {
			return []string{"@" + username}
		}
		return nil
	}

	var found []string
	for off := 0; ; {
		i := strings.Index(lower[off:], mention)
		if i < 0 {
			return found
		}
		start := off + i
		found = append(found, text[start:start+len(mention)])
		off = start + len(mention)
	}
}

// target resolves the chat and forum thread to send into.
func target(ref types.ConversationRef) (tele.ChatID, int, error) {
	switch r := ref.(type) {
	case types.DirectRef:
		id, err := strconv.ParseInt(r.ChatID, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("telegram: invalid chat id %q", r.ChatID)
		}
		return tele.ChatID(id), 0, nil
	case types.ChannelRef:
		chat, topic, hasTopic := strings.Cut(r.ChannelID, ":")
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("telegram: invalid chat id %q", r.ChannelID)
		}
		thread := 0
		if hasTopic {
			if thread, err = strconv.Atoi(topic); err != nil {
				return 0, 0, fmt.Errorf("telegram: invalid thread id %q", r.ChannelID)
			}
		}
		return tele.ChatID(id), thread, nil
	}
	return 0, 0, fmt.Errorf("telegram: unsupported conversation %v", ref)
}

// Send posts text into the conversation, split to Telegram's length limit.
func (b *Bot) Send(ctx context.Context, ref types.ConversationRef, text string) error {
	return b.send(ctx, ref, 0, text)
}

// Reply quotes msg in groups. Only the first chunk carries the quote.
func (b *Bot) Reply(ctx context.Context, msg *types.InboundMessage, text string) error {
	id, err := strconv.Atoi(msg.ID)
	if err != nil || msg.Conversation.IsDirect() {
		return b.send(ctx, msg.Conversation, 0, text)
	}
	return b.send(ctx, msg.Conversation, id, text)
}

func (b *Bot) send(ctx context.Context, ref types.ConversationRef, replyTo int, text string) error {
	chat, thread, err := target(ref)
	if err != nil {
		return err
	}
	for i, chunk := range chtypes.SplitMessage(text, maxTelegramMessage) {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts := &tele.SendOptions{ThreadID: thread}
		if i == 0 && replyTo != 0 {
			opts.ReplyTo = &tele.Message{ID: replyTo, Chat: &tele.Chat{ID: int64(chat)}}
		}
		if err := b.sendWithHTMLFallback(chat, chunk, opts); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

// sendWithHTMLFallback sends text rendered as HTML, falling back to plain
// text when Telegram rejects the markup.
func (b *Bot) sendWithHTMLFallback(chat tele.ChatID, text string, opts *tele.SendOptions) error {
	if formatted, ok := toHTML(text); ok {
		htmlOpts := *opts
		htmlOpts.ParseMode = tele.ModeHTML
		_, err := b.bot.Send(chat, formatted, &htmlOpts)
		if err == nil {
			return nil
		}
		L_debug("telegram: HTML send failed, falling back to plain text", "error", err)
	}
	_, err := b.bot.Send(chat, text, opts)
	return err
}

// Typing shows the typing indicator for about five seconds.
func (b *Bot) Typing(_ context.Context, ref types.ConversationRef) error {
	chat, _, err := target(ref)
	if err != nil {
		return err
	}
	return b.bot.Notify(chat, tele.Typing)
}

// menuCommands lists the slash-form command words for the chat menu.
func menuCommands(tokens []commands.Token) []tele.Command {
	var cmds []tele.Command
	for _, t := range tokens {
		if !strings.HasPrefix(t.Name, "/") || t.Description == "" {
			continue
		}
		cmds = append(cmds, tele.Command{
			Text:        strings.TrimPrefix(t.Name, "/"),
			Description: t.Description,
		})
	}
	return cmds
}
