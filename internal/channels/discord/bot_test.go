package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/KouCha61ue/MIndCore/internal/commands"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

func TestSelfMentions(t *testing.T) {
	self := &discordgo.User{ID: "999", Username: "mindcore"}
	other := &discordgo.User{ID: "123", Username: "alice"}

	tests := []struct {
		name     string
		mentions []*discordgo.User
		selfID   string
		want     []string
	}{
		{"mentioned", []*discordgo.User{other, self}, "999", []string{"<@999>", "<@!999>", "@mindcore"}},
		{"not mentioned", []*discordgo.User{other}, "999", nil},
		{"not ready", []*discordgo.User{self}, "", nil},
		{"nil entry", []*discordgo.User{nil}, "999", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selfMentions(tt.mentions, tt.selfID, "mindcore")
			if len(got) != len(tt.want) {
				t.Fatalf("selfMentions() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("selfMentions()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMentionStripping(t *testing.T) {
	tokens := selfMentions([]*discordgo.User{{ID: "999"}}, "999", "mindcore")
	c := commands.NewClassifier()

	tests := []struct {
		text string
		want commands.Kind
	}{
		{"<@999> !join", commands.KindRegister},
		{"<@!999>   ", commands.KindEmpty},
		{"<@999> こんにちは", commands.KindGenerate},
	}
	for _, tt := range tests {
		if got := c.Classify(commands.Normalize(tt.text, tokens)).Kind; got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestChannelID(t *testing.T) {
	tests := []struct {
		name    string
		ref     types.ConversationRef
		want    string
		wantErr bool
	}{
		{"direct", types.DirectRef{ChatID: "dm-1", UserID: "5"}, "dm-1", false},
		{"channel", types.ChannelRef{GuildID: "g", ChannelID: "c"}, "c", false},
		{"nil", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := channelID(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("channelID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("channelID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdminCommands(t *testing.T) {
	cmds := adminCommands(commands.NewClassifier().Tokens())
	if len(cmds) != 2 {
		t.Fatalf("adminCommands() returned %d commands, want 2", len(cmds))
	}

	names := map[string]bool{}
	for _, c := range cmds {
		names[c.Name] = true
		if c.DefaultMemberPermissions == nil || *c.DefaultMemberPermissions != discordgo.PermissionManageChannels {
			t.Errorf("%s: default member permissions = %v, want ManageChannels", c.Name, c.DefaultMemberPermissions)
		}
		if c.DMPermission == nil || *c.DMPermission {
			t.Errorf("%s: should be disabled in DMs", c.Name)
		}
		if c.Description == "" {
			t.Errorf("%s: missing description", c.Name)
		}
	}
	if !names["join"] || !names["leave"] {
		t.Errorf("adminCommands() names = %v, want join and leave", names)
	}
}

func TestInteractionRefAndActor(t *testing.T) {
	ctx := context.Background()

	guild := &discordgo.Interaction{
		GuildID:   "g1",
		ChannelID: "c1",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "u1", Username: "mod"},
			Permissions: discordgo.PermissionManageChannels,
		},
	}
	if got := interactionRef(guild); got != (types.ChannelRef{GuildID: "g1", ChannelID: "c1"}) {
		t.Errorf("interactionRef(guild) = %#v", got)
	}
	actor := interactionActor(guild)
	if ok, err := actor.CanManageChannels(ctx); err != nil || !ok {
		t.Errorf("moderator CanManageChannels = %v, %v; want true", ok, err)
	}

	guild.Member.Permissions = discordgo.PermissionSendMessages
	if ok, _ := interactionActor(guild).CanManageChannels(ctx); ok {
		t.Error("member without ManageChannels should not manage channels")
	}

	guild.Member.Permissions = discordgo.PermissionAdministrator
	if ok, _ := interactionActor(guild).CanManageChannels(ctx); !ok {
		t.Error("administrator should manage channels")
	}

	dm := &discordgo.Interaction{ChannelID: "d1", User: &discordgo.User{ID: "u2"}}
	if got := interactionRef(dm); got != (types.DirectRef{ChatID: "d1", UserID: "u2"}) {
		t.Errorf("interactionRef(dm) = %#v", got)
	}
	if ok, _ := interactionActor(dm).CanManageChannels(ctx); ok {
		t.Error("DM actor without member permissions should not manage channels")
	}
}

func TestStatusTracksGatewayConnection(t *testing.T) {
	b := &Bot{startedAt: time.Now()}

	b.onDisconnect(nil, &discordgo.Disconnect{})
	st := b.Status()
	if st.Connected || !errors.Is(st.Error, errDisconnected) {
		t.Errorf("after disconnect Status = %+v, want disconnected with error", st)
	}
	if !st.Running {
		t.Error("disconnect should not mark a started bot as stopped")
	}

	b.onReady(nil, &discordgo.Ready{User: &discordgo.User{ID: "999", Username: "mindcore"}})
	st = b.Status()
	if !st.Connected || st.Error != nil || st.Info != "@mindcore" {
		t.Errorf("after ready Status = %+v, want connected as @mindcore with no error", st)
	}
}
