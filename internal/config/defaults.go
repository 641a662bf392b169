package config

import (
	"github.com/KouCha61ue/MIndCore/internal/dispatch"
	"github.com/KouCha61ue/MIndCore/internal/gateway"
	"github.com/KouCha61ue/MIndCore/internal/llm"
)

// DefaultSystemPrompt frames the model as a supportive listener.
const DefaultSystemPrompt = "あなたは心のケアに寄り添うカウンセラーAIです。" +
	"利用者の感情や状況を丁寧に読み取って、やさしく共感しながら長文は控えてください" +
	"回答は友達感覚で、安心感のあるトーンにしてください。" +
	"医学的診断や投薬の指示は行わず、必要に応じて専門家への相談を勧めてください。"

var defaultModels = map[string]string{
	llm.DriverGemini:    "gemini-2.5-flash",
	llm.DriverOpenAI:    "gpt-4o-mini",
	llm.DriverAnthropic: "claude-sonnet-4-5",
}

// Defaults returns the built-in configuration for driver.
func Defaults(driver string) Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: llm.Config{
			Driver:       driver,
			Model:        defaultModels[driver],
			SystemPrompt: DefaultSystemPrompt,
			Params: llm.GenerationParams{
				Temperature:     0.8,
				TopP:            0.95,
				TopK:            40,
				MaxOutputTokens: 1024,
			},
		},
		Gateway: gateway.Config{
			TimeoutSeconds: 60,
			BusyPolicy:     gateway.BusyWait,
		},
		Messages: dispatch.DefaultMessages(),
		Metrics: MetricsConfig{
			SummarySchedule: "@hourly",
		},
	}
}
