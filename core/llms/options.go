package llms

type PromptOptions struct {
	// Instructions are passed to the backend as a system prompt, separate
	// from the turns.
	Instructions string
	Temperature  *float64
}

type PromptOption func(*PromptOptions)

func WithInstructions(instructions string) PromptOption {
	return func(o *PromptOptions) { o.Instructions = instructions }
}

func WithTemperature(temperature float64) PromptOption {
	return func(o *PromptOptions) { o.Temperature = &temperature }
}

func NewPromptOptions(opts ...PromptOption) PromptOptions {
	options := PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
