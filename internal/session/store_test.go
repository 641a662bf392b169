package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/KouCha61ue/MIndCore/internal/llm"
	"github.com/KouCha61ue/MIndCore/internal/types"
)

type stubConversation struct{ id int64 }

func (c *stubConversation) Send(context.Context, string) (string, error) { return "ok", nil }
func (c *stubConversation) Turns() int                                    { return 0 }

func countingFactory(n *atomic.Int64) Factory {
	return func() (llm.Conversation, error) {
		return &stubConversation{id: n.Add(1)}, nil
	}
}

func TestDeriveKey(t *testing.T) {
	dm := types.DirectRef{ChatID: "555", UserID: "42"}
	chX := types.ChannelRef{GuildID: "1", ChannelID: "10"}
	chY := types.ChannelRef{GuildID: "1", ChannelID: "11"}

	tests := []struct {
		name string
		ref  types.ConversationRef
		user string
		want string
	}{
		{"direct", dm, "42", "dm:42"},
		{"channel", chX, "42", "guild:1:channel:10:user:42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveKey(tt.ref, tt.user); got != tt.want {
				t.Errorf("DeriveKey = %q, want %q", got, tt.want)
			}
			if DeriveKey(tt.ref, tt.user) != DeriveKey(tt.ref, tt.user) {
				t.Error("DeriveKey is not deterministic")
			}
		})
	}

	keys := map[string]bool{
		DeriveKey(chX, "A"): true,
		DeriveKey(chX, "B"): true,
		DeriveKey(chY, "A"): true,
		DeriveKey(dm, "A"):  true,
	}
	if len(keys) != 4 {
		t.Errorf("distinct users/channels collided: %v", keys)
	}
}

func TestGetOrCreateReturnsSameHandle(t *testing.T) {
	var n atomic.Int64
	s := NewStore(countingFactory(&n))

	a, err := s.GetOrCreate("k")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	b, _ := s.GetOrCreate("k")
	if a != b {
		t.Error("second GetOrCreate returned a different handle")
	}
	if n.Load() != 1 {
		t.Errorf("factory called %d times, want 1", n.Load())
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	var n atomic.Int64
	s := NewStore(countingFactory(&n))

	var wg sync.WaitGroup
	handles := make([]llm.Conversation, 32)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := s.GetOrCreate("same")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			handles[i] = conv
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(handles); i++ {
		if handles[i] != handles[0] {
			t.Fatal("concurrent first calls produced distinct handles")
		}
	}
	if n.Load() != 1 {
		t.Errorf("factory called %d times, want 1", n.Load())
	}
}

func TestResetIdempotent(t *testing.T) {
	var n atomic.Int64
	s := NewStore(countingFactory(&n))

	first, _ := s.GetOrCreate("k")
	s.Reset("k")
	s.Reset("k")
	s.Reset("never-created")

	if _, ok := s.Get("k"); ok {
		t.Fatal("handle survived reset")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after reset, want 0", s.Len())
	}

	fresh, _ := s.GetOrCreate("k")
	if fresh == first {
		t.Error("GetOrCreate after reset returned the discarded handle")
	}
}

func TestFactoryError(t *testing.T) {
	boom := errors.New("no client")
	s := NewStore(func() (llm.Conversation, error) { return nil, boom })

	if _, err := s.GetOrCreate("k"); !errors.Is(err, boom) {
		t.Errorf("GetOrCreate error = %v, want %v", err, boom)
	}
	if s.Len() != 0 {
		t.Error("failed creation left an entry behind")
	}
}

func TestKeysSorted(t *testing.T) {
	var n atomic.Int64
	s := NewStore(countingFactory(&n))
	for _, k := range []string{"dm:2", "dm:1", "guild:1:channel:1:user:1"} {
		s.GetOrCreate(k)
	}
	got := s.Keys()
	want := []string{"dm:1", "dm:2", "guild:1:channel:1:user:1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}
