package commands

// Kind is the classification of a normalized message body.
type Kind int

const (
	KindGenerate Kind = iota
	KindRegister
	KindDeregister
	KindReset
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindGenerate:
		return "generate"
	case KindRegister:
		return "register"
	case KindDeregister:
		return "deregister"
	case KindReset:
		return "reset"
	case KindEmpty:
		return "empty"
	}
	return "unknown"
}

// IsAdmin reports whether the kind changes channel access.
func (k Kind) IsAdmin() bool {
	return k == KindRegister || k == KindDeregister
}

// Command is a classified message.
type Command struct {
	Kind Kind
	// Prompt is the normalized body with its original casing. Only
	// meaningful for KindGenerate.
	Prompt string
}

// Token is a command word and its aliases, e.g. "/join" with "!join".
type Token struct {
	Kind        Kind
	Name        string   // e.g., "/join"
	Description string   // shown by transports that publish command menus
	Aliases     []string // e.g., ["!join"]
}
