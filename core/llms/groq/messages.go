package groq

import (
	"github.com/koscakluka/ema-voice/core/llms"
)

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

func toMessages(instructions string, turns []llms.Turn) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}
	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}

		role := messageRoleUser
		if turn.Role == llms.TurnRoleAssistant {
			role = messageRoleAssistant
		}
		messages = append(messages, message{Role: role, Content: turn.Content})
	}
	return messages
}

type requestBody struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	XGroq *struct {
		Usage *usage `json:"usage"`
	} `json:"x_groq"`
	Usage *usage `json:"usage"`
}

type usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	QueueTime        float64 `json:"queue_time"`
	TotalTime        float64 `json:"total_time"`
}
