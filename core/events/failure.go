package events

// KindOrchestratorError identifies an error surfaced to the host.
const KindOrchestratorError Kind = "orchestrator.error"

type OrchestratorError struct {
	Base
	Err error
}

func NewOrchestratorError(err error) OrchestratorError {
	return OrchestratorError{Base: NewBase(KindOrchestratorError), Err: err}
}
