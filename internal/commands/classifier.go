// Package commands classifies chat messages into administrative commands,
// reset directives and generation requests.
package commands

import (
	"sort"
	"strings"
	"sync"
)

// DefaultTokens are the command words recognized out of the box.
var DefaultTokens = []Token{
	{
		Kind:        KindRegister,
		Name:        "/join",
		Description: "指定したチャンネルでBotの応答を有効にします",
		Aliases:     []string{"!join"},
	},
	{
		Kind:        KindDeregister,
		Name:        "/leave",
		Description: "指定したチャンネルでのBot応答を無効にします",
		Aliases:     []string{"!leave"},
	},
	{
		Kind:        KindReset,
		Name:        "!reset",
		Description: "会話履歴をリセットします",
		Aliases:     []string{"reset", "/reset", "リセット"},
	},
}

// Classifier maps normalized message bodies to commands.
type Classifier struct {
	mu     sync.RWMutex
	tokens map[string]*Token // keyed by lower-cased name and aliases
}

// NewClassifier creates a classifier with the given tokens. With no tokens
// it uses DefaultTokens.
func NewClassifier(tokens ...Token) *Classifier {
	if len(tokens) == 0 {
		tokens = DefaultTokens
	}
	c := &Classifier{tokens: make(map[string]*Token)}
	for _, t := range tokens {
		c.Register(t)
	}
	return c
}

// Register adds a token and its aliases. A word claimed by two kinds keeps
// the higher-priority one: register, then deregister, then reset.
func (c *Classifier) Register(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tok := t
	for _, word := range append([]string{tok.Name}, tok.Aliases...) {
		word = strings.ToLower(word)
		if existing := c.tokens[word]; existing != nil && priority(existing.Kind) < priority(tok.Kind) {
			continue
		}
		c.tokens[word] = &tok
	}
}

func priority(k Kind) int {
	switch k {
	case KindRegister:
		return 0
	case KindDeregister:
		return 1
	case KindReset:
		return 2
	}
	return 3
}

// Tokens returns all unique tokens (no aliases), sorted by name.
func (c *Classifier) Tokens() []Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[*Token]bool)
	var list []Token
	for _, t := range c.tokens {
		if !seen[t] {
			seen[t] = true
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Classify classifies a body that has already been through Normalize.
// Command words are matched case-insensitively and exactly; anything that
// is not a command word or empty is a generation request.
func (c *Classifier) Classify(normalized string) Command {
	folded := strings.ToLower(normalized)

	c.mu.RLock()
	tok := c.tokens[folded]
	c.mu.RUnlock()

	if tok != nil {
		return Command{Kind: tok.Kind}
	}
	if normalized == "" {
		return Command{Kind: KindEmpty}
	}
	return Command{Kind: KindGenerate, Prompt: normalized}
}

// Normalize trims the body and strips every token that addresses the bot.
func Normalize(text string, selfMentions []string) string {
	out := strings.TrimSpace(text)
	for _, m := range selfMentions {
		if m == "" {
			continue
		}
		out = strings.TrimSpace(strings.ReplaceAll(out, m, ""))
	}
	return out
}
