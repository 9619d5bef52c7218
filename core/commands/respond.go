package commands

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Env supplies the non-deterministic inputs of local replies.
type Env struct {
	Now  func() time.Time
	Rand *rand.Rand
}

func DefaultEnv() Env {
	return Env{
		Now:  time.Now,
		Rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e Env) intN(n int) int {
	if e.Rand == nil {
		return rand.IntN(n)
	}
	return e.Rand.IntN(n)
}

type Color struct {
	Name string
	Hex  string
}

var palette = []Color{
	{Name: "red", Hex: "#e53935"},
	{Name: "orange", Hex: "#fb8c00"},
	{Name: "yellow", Hex: "#fdd835"},
	{Name: "green", Hex: "#43a047"},
	{Name: "teal", Hex: "#00897b"},
	{Name: "blue", Hex: "#1e88e5"},
	{Name: "indigo", Hex: "#3949ab"},
	{Name: "purple", Hex: "#8e24aa"},
	{Name: "pink", Hex: "#d81b60"},
	{Name: "black", Hex: "#000000"},
	{Name: "white", Hex: "#ffffff"},
	{Name: "gray", Hex: "#757575"},
}

func Palette() []Color {
	return append([]Color(nil), palette...)
}

func LookupColor(name string) (Color, bool) {
	if name == "grey" {
		name = "gray"
	}
	for _, color := range palette {
		if color.Name == name {
			return color, true
		}
	}
	return Color{}, false
}

// Reply is the locally computed answer to a built-in action.
type Reply struct {
	Text string
	// Color is set for background changes.
	Color *Color
	// Roll is set for coin flips (1 or 2) and dice rolls (1 to 6).
	Roll int
}

const HelpText = "You can ask me for the date or the time, to flip a coin or roll a dice, " +
	"to change the background, to set a timer or use the stopwatch, " +
	"to generate an image of something, or just ask me a question. " +
	"Say open settings to change my voice, and stop listening when you are done."

// Respond computes the reply for actions answered without a backend.
// Actions the orchestrator handles itself get an empty reply.
func Respond(action Action, env Env) Reply {
	switch action.Kind {
	case ActionDate:
		return Reply{Text: "Today is " + env.now().Format("Monday, January 2, 2006") + "."}
	case ActionTime:
		return Reply{Text: "It's " + env.now().Format("3:04 PM") + "."}
	case ActionCoinFlip:
		roll := env.intN(2) + 1
		side := "heads"
		if roll == 2 {
			side = "tails"
		}
		return Reply{Text: "It's " + side + ".", Roll: roll}
	case ActionDiceRoll:
		roll := env.intN(6) + 1
		return Reply{Text: fmt.Sprintf("You rolled a %d.", roll), Roll: roll}
	case ActionBackground:
		color, ok := LookupColor(action.Color)
		if !ok {
			color = palette[env.intN(len(palette))]
		}
		return Reply{Text: "Changing the background to " + color.Name + ".", Color: &color}
	case ActionRandomColor:
		color := palette[env.intN(len(palette))]
		return Reply{Text: "How about " + color.Name + "?", Color: &color}
	case ActionClearHistory:
		return Reply{Text: "Our conversation history has been cleared."}
	case ActionHelp:
		return Reply{Text: HelpText}
	case ActionTimer:
		return Reply{Text: "Timer set for " + FormatDuration(action.Duration) + "."}
	case ActionStopwatch:
		switch action.Stopwatch {
		case StopwatchStart:
			return Reply{Text: "Stopwatch started."}
		case StopwatchStop:
			return Reply{Text: "Stopwatch stopped."}
		case StopwatchReset:
			return Reply{Text: "Stopwatch reset."}
		}
	case ActionOpenSettings:
		return Reply{Text: "Settings are open. You can set the speed, the pitch or the voice."}
	case ActionCloseSettings:
		return Reply{Text: "Settings closed."}
	case ActionSetRate:
		return Reply{Text: fmt.Sprintf("Speed set to %s.", formatNumber(action.Value))}
	case ActionSetPitch:
		return Reply{Text: fmt.Sprintf("Pitch set to %s.", formatNumber(action.Value))}
	case ActionSetVoice:
		return Reply{Text: "Voice set to " + action.Text + "."}
	case ActionSetVisualizer:
		if action.Enabled {
			return Reply{Text: "Visualizer enabled."}
		}
		return Reply{Text: "Visualizer disabled."}
	case ActionClarify, ActionInvalidParameter:
		return Reply{Text: action.Message}
	}
	return Reply{}
}

// FormatDuration spells a duration out in minutes and seconds.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	minutes, seconds := total/60, total%60

	parts := make([]string, 0, 2)
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || minutes == 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	return strings.Join(parts, " and ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
