package events

import "github.com/koscakluka/ema-voice/core/llms"

const (
	// KindAssistantResponseThinking identifies that a backend request started.
	KindAssistantResponseThinking Kind = "assistant_response.thinking"
	// KindAssistantResponseUpdated identifies mutable cumulative response text.
	KindAssistantResponseUpdated Kind = "assistant_response.updated"
	// KindAssistantResponseFinal identifies the text that is going to be spoken.
	KindAssistantResponseFinal Kind = "assistant_response.final"
	// KindAssistantResponseImages identifies generated images.
	KindAssistantResponseImages Kind = "assistant_response.images"
)

type AssistantResponseThinking struct{ Base }

func NewAssistantResponseThinking() AssistantResponseThinking {
	return AssistantResponseThinking{Base: NewBase(KindAssistantResponseThinking)}
}

// AssistantResponseUpdated carries all response text received so far.
type AssistantResponseUpdated struct {
	Base
	Text string
}

func NewAssistantResponseUpdated(text string) AssistantResponseUpdated {
	return AssistantResponseUpdated{Base: NewBase(KindAssistantResponseUpdated), Text: text}
}

// AssistantResponseFinal carries the complete response. Markdown is set when
// the text came from the conversational backend and may contain markup.
type AssistantResponseFinal struct {
	Base
	Text     string
	Markdown bool
}

func NewAssistantResponseFinal(text string, markdown bool) AssistantResponseFinal {
	return AssistantResponseFinal{Base: NewBase(KindAssistantResponseFinal), Text: text, Markdown: markdown}
}

type AssistantResponseImages struct {
	Base
	Prompt string
	Images []llms.Image
}

func NewAssistantResponseImages(prompt string, images []llms.Image) AssistantResponseImages {
	return AssistantResponseImages{Base: NewBase(KindAssistantResponseImages), Prompt: prompt, Images: images}
}
