package orchestration

type State int32

const (
	// StateDormant waits for the activation phrase and ignores everything else.
	StateDormant State = iota
	// StateListening accepts commands; nothing is being synthesized.
	StateListening
	// StateSpeaking plays queued chunks with recognition results gated.
	StateSpeaking
	// StateProcessing waits for a backend with recognition results gated.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateDormant:
		return "dormant"
	case StateListening:
		return "listening"
	case StateSpeaking:
		return "speaking"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// IsActive reports whether the assistant has been woken up.
func (s State) IsActive() bool { return s != StateDormant }

// suppresses reports whether entering the state gates recognition results.
func (s State) suppresses() bool {
	return s == StateSpeaking || s == StateProcessing
}
