package dispatch

// AdminReplies are the acknowledgments for register/deregister commands.
type AdminReplies struct {
	InvalidContext    string `toml:"invalid_context"`
	RegisterDenied    string `toml:"register_denied"`
	RegisterInvalid   string `toml:"register_invalid"`
	Registered        string `toml:"registered"`
	AlreadyRegistered string `toml:"already_registered"`
	DeregisterDenied  string `toml:"deregister_denied"`
	DeregisterInvalid string `toml:"deregister_invalid"`
	Deregistered      string `toml:"deregistered"`
	NotRegistered     string `toml:"not_registered"`
}

// Messages is the user-facing reply catalog.
type Messages struct {
	// Text replies answer command words typed into a conversation.
	Text AdminReplies `toml:"text"`
	// Command replies answer structured (slash) commands, shown only to the
	// invoking user.
	Command AdminReplies `toml:"command"`

	EmptyPrompt string `toml:"empty_prompt"`
	ResetDone   string `toml:"reset_done"`
	Apology     string `toml:"apology"`
}

// DefaultMessages returns the built-in catalog.
func DefaultMessages() Messages {
	return Messages{
		Text: AdminReplies{
			InvalidContext:    "このコマンドはサーバー内のテキストチャンネルで使ってください。",
			RegisterDenied:    "権限を確認できなかったため、このチャンネルを登録できませんでした。",
			RegisterInvalid:   "このチャンネルを登録できませんでした。別のチャンネルでお試しください。",
			Registered:        "このチャンネルでやり取りするように設定しました。よろしくお願いします。",
			AlreadyRegistered: "すでにこのチャンネルでお話しできます。",
			DeregisterDenied:  "権限を確認できなかったため、このチャンネルの登録を解除できませんでした。",
			DeregisterInvalid: "このチャンネルの登録を解除できませんでした。別のチャンネルでお試しください。",
			Deregistered:      "このチャンネルでの応答を停止しました。必要になったらまた /join してくださいね。",
			NotRegistered:     "このチャンネルはもともと登録されていませんでした。",
		},
		Command: AdminReplies{
			InvalidContext:    "このコマンドはサーバー内のテキストチャンネルで実行してください。",
			RegisterDenied:    "チャンネルを登録する権限がありません。サーバー管理者に相談してください。",
			RegisterInvalid:   "このチャンネルを登録できませんでした。別のチャンネルでお試しください。",
			Registered:        "このチャンネルでやり取りするように設定しました。よろしくお願いします。",
			AlreadyRegistered: "すでにこのチャンネルでお話しできるようになっています。",
			DeregisterDenied:  "チャンネルの登録解除権限がありません。サーバー管理者に相談してください。",
			DeregisterInvalid: "このチャンネルの登録を解除できませんでした。別のチャンネルでお試しください。",
			Deregistered:      "このチャンネルでの応答を停止しました。必要になったらまた /join してくださいね。",
			NotRegistered:     "このチャンネルはもともと登録されていませんでした。",
		},
		EmptyPrompt: "何についてお話ししますか？遠慮なく教えてくださいね。",
		ResetDone:   "会話履歴をリセットしました。いつでもお話しくださいね。",
		Apology:     "ごめんなさい、今はお手伝いができないみたいです。少し時間を置いてからもう一度試してもらえると嬉しいです。",
	}
}
