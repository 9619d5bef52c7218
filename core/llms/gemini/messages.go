package gemini

import (
	"github.com/koscakluka/ema-voice/core/llms"
	"google.golang.org/genai"
)

func toContents(turns []llms.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}

		role := genai.Role(genai.RoleUser)
		if turn.Role == llms.TurnRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return contents
}

func toConfig(options llms.PromptOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if options.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(options.Instructions, genai.RoleUser)
	}
	if options.Temperature != nil {
		temperature := float32(*options.Temperature)
		config.Temperature = &temperature
	}
	return config
}
