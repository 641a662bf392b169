package llm

import (
	"context"
	"errors"
	"testing"
)

func TestLocalConversationHistory(t *testing.T) {
	var seen [][]Turn
	fail := false
	reply := "hello"
	conv := newLocalConversation(func(_ context.Context, history []Turn, prompt string) (string, error) {
		seen = append(seen, history)
		if fail {
			return "", errors.New("boom")
		}
		return reply, nil
	})
	ctx := context.Background()

	if _, err := conv.Send(ctx, "first"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if conv.Turns() != 1 {
		t.Fatalf("Turns() = %d after one success, want 1", conv.Turns())
	}

	fail = true
	if _, err := conv.Send(ctx, "second"); err == nil {
		t.Fatal("expected error")
	}
	if conv.Turns() != 1 {
		t.Errorf("failed Send changed history: Turns() = %d", conv.Turns())
	}

	fail = false
	reply = "  \n"
	if _, err := conv.Send(ctx, "third"); !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("blank reply error = %v, want ErrEmptyCompletion", err)
	}
	if conv.Turns() != 1 {
		t.Errorf("blank reply changed history: Turns() = %d", conv.Turns())
	}

	reply = "ok"
	if _, err := conv.Send(ctx, "fourth"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	last := seen[len(seen)-1]
	want := []Turn{{RoleUser, "first"}, {RoleModel, "hello"}}
	if len(last) != len(want) {
		t.Fatalf("history sent = %v, want %v", last, want)
	}
	for i := range want {
		if last[i] != want[i] {
			t.Errorf("history[%d] = %v, want %v", i, last[i], want[i])
		}
	}
}
