package llms

// TurnRole identifies who produced a turn in the conversation.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is a single entry of the conversation sent to the completion backend.
type Turn struct {
	Role TurnRole

	// Content is the prompt in the user's turn and the response in the
	// assistant's turn.
	Content string
}

func UserTurn(content string) Turn      { return Turn{Role: TurnRoleUser, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: TurnRoleAssistant, Content: content} }

// Image is a single generated image.
type Image struct {
	MIMEType string
	Data     []byte
}
