package events

const (
	// KindAssistantSpeechChunkStarted identifies the start of a spoken chunk.
	KindAssistantSpeechChunkStarted Kind = "assistant_speech.chunk_started"
	// KindAssistantSpeechChunkEnded identifies the end of a spoken chunk.
	KindAssistantSpeechChunkEnded Kind = "assistant_speech.chunk_ended"
	// KindAssistantSpeechCancelled identifies that queued speech was dropped.
	KindAssistantSpeechCancelled Kind = "assistant_speech.cancelled"
)

type AssistantSpeechChunkStarted struct {
	Base
	Chunk string
}

func NewAssistantSpeechChunkStarted(chunk string) AssistantSpeechChunkStarted {
	return AssistantSpeechChunkStarted{Base: NewBase(KindAssistantSpeechChunkStarted), Chunk: chunk}
}

// AssistantSpeechChunkEnded carries the chunk and the synthesis error, if any.
type AssistantSpeechChunkEnded struct {
	Base
	Chunk string
	Err   error
}

func NewAssistantSpeechChunkEnded(chunk string, err error) AssistantSpeechChunkEnded {
	return AssistantSpeechChunkEnded{Base: NewBase(KindAssistantSpeechChunkEnded), Chunk: chunk, Err: err}
}

type AssistantSpeechCancelled struct{ Base }

func NewAssistantSpeechCancelled() AssistantSpeechCancelled {
	return AssistantSpeechCancelled{Base: NewBase(KindAssistantSpeechCancelled)}
}
