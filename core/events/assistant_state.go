package events

const (
	// KindAssistantStateChanged identifies an orchestrator state transition.
	KindAssistantStateChanged Kind = "assistant_state.changed"
	// KindAssistantSuppressionChanged identifies recognition gating changes.
	KindAssistantSuppressionChanged Kind = "assistant_state.suppression_changed"
)

// AssistantStateChanged carries the names of both states of a transition.
type AssistantStateChanged struct {
	Base
	From string
	To   string
}

func NewAssistantStateChanged(from, to string) AssistantStateChanged {
	return AssistantStateChanged{Base: NewBase(KindAssistantStateChanged), From: from, To: to}
}

type AssistantSuppressionChanged struct {
	Base
	Suppressed bool
}

func NewAssistantSuppressionChanged(suppressed bool) AssistantSuppressionChanged {
	return AssistantSuppressionChanged{Base: NewBase(KindAssistantSuppressionChanged), Suppressed: suppressed}
}
