package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/KouCha61ue/MIndCore/internal/commands"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

func TestConversationRef(t *testing.T) {
	tests := []struct {
		name   string
		chat   *tele.Chat
		thread int
		want   types.ConversationRef
	}{
		{
			name: "private",
			chat: &tele.Chat{ID: 77, Type: tele.ChatPrivate},
			want: types.DirectRef{ChatID: "77", UserID: "5"},
		},
		{
			name: "group",
			chat: &tele.Chat{ID: -100123, Type: tele.ChatSuperGroup},
			want: types.ChannelRef{GuildID: "-100123", ChannelID: "-100123"},
		},
		{
			name:   "forum topic",
			chat:   &tele.Chat{ID: -100123, Type: tele.ChatSuperGroup, IsForum: true},
			thread: 9,
			want:   types.ChannelRef{GuildID: "-100123", ChannelID: "-100123:9"},
		},
		{
			name:   "thread outside forum",
			chat:   &tele.Chat{ID: -42, Type: tele.ChatGroup},
			thread: 9,
			want:   types.ChannelRef{GuildID: "-42", ChannelID: "-42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conversationRef(tt.chat, tt.thread, 5); got != tt.want {
				t.Errorf("conversationRef() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		name       string
		ref        types.ConversationRef
		wantChat   tele.ChatID
		wantThread int
		wantErr    bool
	}{
		{"direct", types.DirectRef{ChatID: "77", UserID: "5"}, 77, 0, false},
		{"group", types.ChannelRef{GuildID: "-100", ChannelID: "-100"}, -100, 0, false},
		{"topic", types.ChannelRef{GuildID: "-100", ChannelID: "-100:9"}, -100, 9, false},
		{"bad chat", types.DirectRef{ChatID: "abc"}, 0, 0, true},
		{"bad channel", types.ChannelRef{GuildID: "-100", ChannelID: "x"}, 0, 0, true},
		{"bad topic", types.ChannelRef{GuildID: "-100", ChannelID: "-100:x"}, 0, 0, true},
		{"nil", nil, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat, thread, err := target(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("target() error = %v, wantErr %v", err, tt.wantErr)
			}
			if chat != tt.wantChat || thread != tt.wantThread {
				t.Errorf("target() = (%d, %d), want (%d, %d)", chat, thread, tt.wantChat, tt.wantThread)
			}
		})
	}
}

func TestConversationRefRoundTrip(t *testing.T) {
	chat := &tele.Chat{ID: -100555, Type: tele.ChatSuperGroup, IsForum: true}
	got, thread, err := target(conversationRef(chat, 12, 1))
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if int64(got) != chat.ID || thread != 12 {
		t.Errorf("round trip = (%d, %d), want (%d, 12)", got, thread, chat.ID)
	}
}

func TestForumTopicsAreDistinctAcrossChats(t *testing.T) {
	forumA := &tele.Chat{ID: -1001111111111, Type: tele.ChatSuperGroup, IsForum: true}
	forumB := &tele.Chat{ID: -1002222222222, Type: tele.ChatSuperGroup, IsForum: true}

	refA := conversationRef(forumA, 3, 1).(types.ChannelRef)
	refB := conversationRef(forumB, 3, 1).(types.ChannelRef)

	idA, okA := refA.ID()
	idB, okB := refB.ID()
	if !okA || !okB {
		t.Fatalf("topic refs should resolve: %q=%v %q=%v", refA.ChannelID, okA, refB.ChannelID, okB)
	}
	if idA == idB {
		t.Errorf("topic 3 of two forums share channel id %q", idA)
	}
}

func TestCanManage(t *testing.T) {
	tests := []struct {
		name   string
		member *tele.ChatMember
		want   bool
	}{
		{"nil", nil, false},
		{"creator", &tele.ChatMember{Role: tele.Creator}, true},
		{"admin manage chat", &tele.ChatMember{Role: tele.Administrator, Rights: tele.Rights{CanManageChat: true}}, true},
		{"admin change info", &tele.ChatMember{Role: tele.Administrator, Rights: tele.Rights{CanChangeInfo: true}}, true},
		{"admin without rights", &tele.ChatMember{Role: tele.Administrator}, false},
		{"member", &tele.ChatMember{Role: tele.Member, Rights: tele.Rights{CanManageChat: true}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canManage(tt.member); got != tt.want {
				t.Errorf("canManage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelfMentions(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"@MindCore_bot hello", 1},
		{"@mindcore_bot hi @MINDCORE_BOT", 2},
		{"/join@mindcore_bot", 1},
		{"hello there", 0},
		{"@other_bot hi", 0},
	}
	for _, tt := range tests {
		got := selfMentions(tt.text, "MindCore_bot")
		if len(got) != tt.want {
			t.Errorf("selfMentions(%q) = %v, want %d tokens", tt.text, got, tt.want)
		}
	}

	if got := selfMentions("@anyone", ""); got != nil {
		t.Errorf("selfMentions without username = %v, want nil", got)
	}
}

func TestSelfMentionsNormalizeCommand(t *testing.T) {
	c := commands.NewClassifier()
	text := "/join@mindcore_BOT"
	got := c.Classify(commands.Normalize(text, selfMentions(text, "MindCore_bot")))
	if got.Kind != commands.KindRegister {
		t.Errorf("Classify(%q) = %v, want %v", text, got.Kind, commands.KindRegister)
	}
}

func TestMenuCommands(t *testing.T) {
	cmds := menuCommands(commands.NewClassifier().Tokens())
	seen := map[string]bool{}
	for _, c := range cmds {
		seen[c.Text] = true
		if c.Description == "" {
			t.Errorf("command %q has no description", c.Text)
		}
	}
	for _, want := range []string{"join", "leave"} {
		if !seen[want] {
			t.Errorf("menu missing %q: %v", want, cmds)
		}
	}
}
