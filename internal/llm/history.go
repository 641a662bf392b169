package llm

import (
	"context"
	"strings"
	"sync"
)

// completeFunc performs one stateless completion over history plus prompt.
type completeFunc func(ctx context.Context, history []Turn, prompt string) (string, error)

// localConversation keeps history in process for backends whose APIs are
// stateless (OpenAI chat completions, Anthropic messages).
type localConversation struct {
	complete completeFunc

	mu    sync.Mutex
	turns []Turn
}

func newLocalConversation(complete completeFunc) *localConversation {
	return &localConversation{complete: complete}
}

func (c *localConversation) Send(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	history := make([]Turn, len(c.turns))
	copy(history, c.turns)
	c.mu.Unlock()

	reply, err := c.complete(ctx, history, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyCompletion
	}

	c.mu.Lock()
	c.turns = append(c.turns, Turn{Role: RoleUser, Text: prompt}, Turn{Role: RoleModel, Text: reply})
	c.mu.Unlock()
	return reply, nil
}

func (c *localConversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns) / 2
}
