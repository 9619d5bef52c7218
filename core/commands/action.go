package commands

import (
	"strings"
	"time"
)

// Mode is the UI sub-mode the classifier evaluates in.
type Mode int

const (
	ModeDefault Mode = iota
	ModeSettings

	// ModeAny is only meaningful on a Rule.
	ModeAny Mode = -1
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeSettings:
		return "settings"
	case ModeAny:
		return "any"
	default:
		return "unknown"
	}
}

type Kind string

const (
	ActionOpenSettings  Kind = "open_settings"
	ActionCloseSettings Kind = "close_settings"
	ActionDeactivate    Kind = "deactivate"
	ActionInterrupt     Kind = "interrupt"

	ActionSetRate       Kind = "set_rate"
	ActionSetPitch      Kind = "set_pitch"
	ActionSetVoice      Kind = "set_voice"
	ActionSetVisualizer Kind = "set_visualizer"

	ActionDate         Kind = "date"
	ActionTime         Kind = "time"
	ActionCoinFlip     Kind = "coin_flip"
	ActionDiceRoll     Kind = "dice_roll"
	ActionBackground   Kind = "background"
	ActionRandomColor  Kind = "random_color"
	ActionClearHistory Kind = "clear_history"
	ActionHelp         Kind = "help"

	ActionTimer     Kind = "timer"
	ActionStopwatch Kind = "stopwatch"

	ActionGenerateImage Kind = "generate_image"

	ActionInvalidParameter Kind = "invalid_parameter"
	ActionClarify          Kind = "clarify"

	ActionConverse Kind = "converse"
)

// IsBuiltIn reports whether the action is answered without the
// conversational backend.
func (k Kind) IsBuiltIn() bool {
	return k != ActionConverse
}

type StopwatchCommand string

const (
	StopwatchStart StopwatchCommand = "start"
	StopwatchStop  StopwatchCommand = "stop"
	StopwatchReset StopwatchCommand = "reset"
)

// Action is the result of classifying one utterance. Only the fields
// relevant to Kind are set.
type Action struct {
	Kind Kind
	// Rule is the name of the rule that produced the action.
	Rule string

	// Text carries the conversational turn, the image prompt or the
	// requested voice name.
	Text string

	Value     float64
	Enabled   bool
	Duration  time.Duration
	Stopwatch StopwatchCommand
	Color     string

	// Message is the spoken reply for clarifications and invalid
	// parameters.
	Message string
}

// Utterance is a normalized final transcript.
type Utterance struct {
	text string
}

func NewUtterance(raw string) Utterance {
	return Utterance{text: strings.ToLower(strings.TrimSpace(raw))}
}

func (u Utterance) Text() string { return u.text }

func (u Utterance) IsEmpty() bool { return u.text == "" }
