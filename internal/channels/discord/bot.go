// Package discord provides the Discord bot adapter for mindcore.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	chtypes "github.com/KouCha61ue/MIndCore/internal/channels/types"
	"github.com/KouCha61ue/MIndCore/internal/commands"
	"github.com/KouCha61ue/MIndCore/internal/dispatch"
	. "github.com/KouCha61ue/MIndCore/internal/logging"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

// maxDiscordMessage is Discord's message length limit in characters.
const maxDiscordMessage = 2000

// managePermissions grant /join and /leave.
const managePermissions = discordgo.PermissionManageChannels | discordgo.PermissionAdministrator

// errDisconnected is reported by Status until the gateway is ready again.
var errDisconnected = errors.New("discord: gateway disconnected")

// Bot is the Discord transport. It implements dispatch.Outbound and
// types.ManagedChannel.
type Bot struct {
	session    *discordgo.Session
	dispatcher *dispatch.Dispatcher

	mu        sync.RWMutex
	selfID    string
	selfName  string
	connected bool
	startedAt time.Time
	synced    bool
	lastErr   error

	removeHandlers []func()
	ctx            context.Context
	cancel         context.CancelFunc
}

// New creates a Discord bot. No connection is made until Start.
func New(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token not configured")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	L_debug("discord: session created", "tokenLength", len(token))
	return &Bot{session: s}, nil
}

// Attach sets the dispatcher that handles inbound messages. Must be called
// before Start.
func (b *Bot) Attach(d *dispatch.Dispatcher) {
	b.dispatcher = d
}

// Name returns the channel name
func (b *Bot) Name() string {
	return "discord"
}

// Start opens the gateway connection and registers event handlers.
func (b *Bot) Start(ctx context.Context) error {
	if b.dispatcher == nil {
		return errors.New("discord: no dispatcher attached")
	}
	b.ctx, b.cancel = context.WithCancel(ctx)

	b.removeHandlers = append(b.removeHandlers,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onMessageCreate),
		b.session.AddHandler(b.onInteractionCreate),
		b.session.AddHandler(b.onDisconnect),
	)

	if err := b.session.Open(); err != nil {
		b.clearHandlers()
		b.setErr(err)
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	b.mu.Lock()
	b.startedAt = time.Now()
	b.mu.Unlock()
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	L_info("stopping discord bot")
	if b.cancel != nil {
		b.cancel()
	}
	b.clearHandlers()

	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	return b.session.Close()
}

func (b *Bot) clearHandlers() {
	for _, remove := range b.removeHandlers {
		remove()
	}
	b.removeHandlers = nil
}

func (b *Bot) setErr(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}

// Status returns the current channel status
func (b *Bot) Status() chtypes.ChannelStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	info := ""
	if b.selfName != "" {
		info = "@" + b.selfName
	}
	return chtypes.ChannelStatus{
		Running:   !b.startedAt.IsZero(),
		Connected: b.connected,
		Error:     b.lastErr,
		StartedAt: b.startedAt,
		Info:      info,
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	b.selfID = r.User.ID
	b.selfName = r.User.Username
	b.connected = true
	b.lastErr = nil
	alreadySynced := b.synced
	b.mu.Unlock()

	L_info("discord: connected", "bot", r.User.Username, "id", r.User.ID, "guilds", len(r.Guilds))

	if alreadySynced || r.Application == nil {
		return
	}
	if err := b.syncCommands(r.Application.ID, r.Guilds); err != nil {
		L_error("discord: failed to sync application commands", "error", err)
		return
	}
	b.mu.Lock()
	b.synced = true
	b.mu.Unlock()
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.mu.Lock()
	b.connected = false
	b.lastErr = errDisconnected
	b.mu.Unlock()
	L_warn("discord: gateway disconnected, waiting for reconnect")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	msg := b.inbound(m.Message)
	L_trace("discord: message received", "conversation", msg.Conversation, "author", msg.Author.ID, "bot", msg.Author.Automated)
	b.dispatcher.Handle(b.ctx, msg)
}

// inbound converts a discordgo message at the transport boundary.
func (b *Bot) inbound(m *discordgo.Message) *types.InboundMessage {
	b.mu.RLock()
	selfID, selfName := b.selfID, b.selfName
	b.mu.RUnlock()

	var ref types.ConversationRef
	if m.GuildID == "" {
		ref = types.DirectRef{ChatID: m.ChannelID, UserID: m.Author.ID}
	} else {
		ref = types.ChannelRef{GuildID: m.GuildID, ChannelID: m.ChannelID}
	}

	authorID, channelID := m.Author.ID, m.ChannelID
	privilege := func(ctx context.Context) (bool, error) {
		perms, err := b.session.UserChannelPermissions(authorID, channelID, discordgo.WithContext(ctx))
		if err != nil {
			return false, err
		}
		return perms&managePermissions != 0, nil
	}

	return &types.InboundMessage{
		ID:           m.ID,
		Platform:     "discord",
		Conversation: ref,
		Author:       types.NewActor(m.Author.ID, m.Author.Username, m.Author.Bot, privilege),
		Text:         m.Content,
		SelfMentions: selfMentions(m.Mentions, selfID, selfName),
	}
}

// selfMentions lists the literal forms in which the bot can be addressed,
// if the message mentions it.
func selfMentions(mentions []*discordgo.User, selfID, selfName string) []string {
	if selfID == "" {
		return nil
	}
	for _, u := range mentions {
		if u != nil && u.ID == selfID {
			tokens := []string{"<@" + selfID + ">", "<@!" + selfID + ">"}
			if selfName != "" {
				tokens = append(tokens, "@"+selfName)
			}
			return tokens
		}
	}
	return nil
}

func channelID(ref types.ConversationRef) (string, error) {
	switch r := ref.(type) {
	case types.DirectRef:
		return r.ChatID, nil
	case types.ChannelRef:
		return r.ChannelID, nil
	}
	return "", fmt.Errorf("discord: unsupported conversation %v", ref)
}

// Send posts text into the conversation, split to Discord's length limit.
func (b *Bot) Send(ctx context.Context, ref types.ConversationRef, text string) error {
	chID, err := channelID(ref)
	if err != nil {
		return err
	}
	for _, chunk := range chtypes.SplitMessage(text, maxDiscordMessage) {
		if _, err := b.session.ChannelMessageSend(chID, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord: send: %w", err)
		}
	}
	return nil
}

// Reply answers msg with a message reference and without pinging its author.
// Only the first chunk carries the reference.
func (b *Bot) Reply(ctx context.Context, msg *types.InboundMessage, text string) error {
	ref, ok := msg.Conversation.(types.ChannelRef)
	if !ok {
		return b.Send(ctx, msg.Conversation, text)
	}
	for i, chunk := range chtypes.SplitMessage(text, maxDiscordMessage) {
		send := &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
		}
		if i == 0 {
			send.Reference = &discordgo.MessageReference{
				MessageID: msg.ID,
				ChannelID: ref.ChannelID,
				GuildID:   ref.GuildID,
			}
		}
		if _, err := b.session.ChannelMessageSendComplex(ref.ChannelID, send, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord: reply: %w", err)
		}
	}
	return nil
}

// Typing shows the typing indicator for about ten seconds.
func (b *Bot) Typing(ctx context.Context, ref types.ConversationRef) error {
	chID, err := channelID(ref)
	if err != nil {
		return err
	}
	return b.session.ChannelTyping(chID, discordgo.WithContext(ctx))
}

// adminCommands builds the /join and /leave application commands from the
// classifier's token table.
func adminCommands(tokens []commands.Token) []*discordgo.ApplicationCommand {
	perm := int64(discordgo.PermissionManageChannels)
	dm := false

	var cmds []*discordgo.ApplicationCommand
	for _, t := range tokens {
		if !t.Kind.IsAdmin() || !strings.HasPrefix(t.Name, "/") {
			continue
		}
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:                     strings.TrimPrefix(t.Name, "/"),
			Description:              t.Description,
			DefaultMemberPermissions: &perm,
			DMPermission:             &dm,
		})
	}
	return cmds
}

// syncCommands publishes the commands globally and to each joined guild,
// where they appear immediately.
func (b *Bot) syncCommands(appID string, guilds []*discordgo.Guild) error {
	cmds := adminCommands(b.dispatcher.Classifier().Tokens())
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, "", cmds); err != nil {
		return fmt.Errorf("global: %w", err)
	}
	for _, g := range guilds {
		if _, err := b.session.ApplicationCommandBulkOverwrite(appID, g.ID, cmds); err != nil {
			L_warn("discord: failed to sync commands for guild", "guild", g.ID, "error", err)
		}
	}
	L_info("discord: application commands synced", "commands", len(cmds), "guilds", len(guilds))
	return nil
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	var kind commands.Kind
	switch i.ApplicationCommandData().Name {
	case "join":
		kind = commands.KindRegister
	case "leave":
		kind = commands.KindDeregister
	default:
		return
	}

	reply := b.dispatcher.HandleAdmin(b.ctx, kind, interactionRef(i.Interaction), interactionActor(i.Interaction))
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		L_warn("discord: interaction response failed", "command", kind, "error", err)
	}
}

func interactionRef(i *discordgo.Interaction) types.ConversationRef {
	if i.GuildID == "" {
		userID := ""
		if u := interactionUser(i); u != nil {
			userID = u.ID
		}
		return types.DirectRef{ChatID: i.ChannelID, UserID: userID}
	}
	return types.ChannelRef{GuildID: i.GuildID, ChannelID: i.ChannelID}
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// interactionActor uses the member permissions Discord resolved for the
// invoking channel, so no lookup is needed.
func interactionActor(i *discordgo.Interaction) types.Actor {
	u := interactionUser(i)
	if u == nil {
		return types.NewActor("", "", false, nil)
	}
	var check types.PrivilegeFunc
	if i.Member != nil {
		perms := i.Member.Permissions
		check = func(context.Context) (bool, error) {
			return perms&managePermissions != 0, nil
		}
	}
	return types.NewActor(u.ID, u.Username, u.Bot, check)
}
