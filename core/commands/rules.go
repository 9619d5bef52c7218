package commands

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/koscakluka/ema-voice/core/settings"
)

var (
	openSettingsPattern  = regexp.MustCompile(`\b(?:open|show)(?: the)? settings\b`)
	closeSettingsPattern = regexp.MustCompile(`\b(?:close|exit|hide|leave)(?: the)? settings\b`)

	setRatePattern       = regexp.MustCompile(`\bset (?:the )?(?:speech )?(?:speed|rate)(?: to)?\b(.*)$`)
	setPitchPattern      = regexp.MustCompile(`\bset (?:the )?pitch(?: to)?\b(.*)$`)
	setVoicePattern      = regexp.MustCompile(`\b(?:set|change) (?:the )?voice(?: to)?\b(.*)$`)
	visualizerPattern    = regexp.MustCompile(`\b(enable|disable|turn on|turn off|show|hide)(?: the)? visuali[sz]er\b`)
	visualizerOffPattern = regexp.MustCompile(`^(?:disable|turn off|hide)$`)

	datePattern         = regexp.MustCompile(`\bwhat(?:'s| is) (?:the |today's )?date\b|\bwhat day is (?:it|today)\b|\btoday's date\b`)
	timePattern         = regexp.MustCompile(`\bwhat(?:'s| is) the time\b|\bwhat time is it\b|\bcurrent time\b|\btell me the time\b`)
	coinPattern         = regexp.MustCompile(`\b(?:flip|toss) a coin\b|\bcoin (?:flip|toss)\b`)
	dicePattern         = regexp.MustCompile(`\broll (?:a |the )?(?:die|dice)\b`)
	randomColorPattern  = regexp.MustCompile(`\brandom colou?r\b`)
	backgroundPattern   = regexp.MustCompile(`\b(?:change|set|make) (?:the )?background(?: colou?r)?(?: to)?\b(.*)$`)
	clearHistoryPattern = regexp.MustCompile(`\bclear (?:the |our )?(?:conversation|history|chat)\b|\bforget (?:everything|our conversation)\b`)
	helpPattern         = regexp.MustCompile(`^(?:help|help me)[.!?]?$|\bwhat can you do\b|\bwhat commands\b`)

	timerPattern     = regexp.MustCompile(`\btimer\b`)
	durationPattern  = regexp.MustCompile(`\b(\d+)\s*(second|minute)s?\b`)
	stopwatchPattern = regexp.MustCompile(`\bstop ?watch\b`)
	stopwatchVerb    = regexp.MustCompile(`\b(start|stop|reset|pause)\b`)
)

func (c *Classifier) buildRules() []Rule {
	return []Rule{
		{Name: "open_settings", Tier: TierModeEscape, Mode: ModeAny, Match: pattern(openSettingsPattern), Build: fixed(ActionOpenSettings)},
		{Name: "close_settings", Tier: TierModeEscape, Mode: ModeAny, Match: pattern(closeSettingsPattern), Build: fixed(ActionCloseSettings)},
		{Name: "deactivate", Tier: TierModeEscape, Mode: ModeAny, Match: contains(c.deactivationPhrase), Build: fixed(ActionDeactivate)},
		{Name: "interrupt", Tier: TierModeEscape, Mode: ModeAny, Match: contains(c.interruptPhrase), Build: fixed(ActionInterrupt)},

		{Name: "set_rate", Tier: TierModeScoped, Mode: ModeSettings, Match: pattern(setRatePattern), Build: buildSetRate},
		{Name: "set_pitch", Tier: TierModeScoped, Mode: ModeSettings, Match: pattern(setPitchPattern), Build: buildSetPitch},
		{Name: "set_voice", Tier: TierModeScoped, Mode: ModeSettings, Match: pattern(setVoicePattern), Build: buildSetVoice},
		{Name: "set_visualizer", Tier: TierModeScoped, Mode: ModeSettings, Match: pattern(visualizerPattern), Build: buildSetVisualizer},

		{Name: "date", Tier: TierUtility, Mode: ModeAny, Match: pattern(datePattern), Build: fixed(ActionDate)},
		{Name: "time", Tier: TierUtility, Mode: ModeAny, Match: pattern(timePattern), Build: fixed(ActionTime)},
		{Name: "coin_flip", Tier: TierUtility, Mode: ModeAny, Match: pattern(coinPattern), Build: fixed(ActionCoinFlip)},
		{Name: "dice_roll", Tier: TierUtility, Mode: ModeAny, Match: pattern(dicePattern), Build: fixed(ActionDiceRoll)},
		{Name: "random_color", Tier: TierUtility, Mode: ModeAny, Match: pattern(randomColorPattern), Build: fixed(ActionRandomColor)},
		{Name: "background", Tier: TierUtility, Mode: ModeAny, Match: pattern(backgroundPattern), Build: buildBackground},
		{Name: "clear_history", Tier: TierUtility, Mode: ModeAny, Match: pattern(clearHistoryPattern), Build: fixed(ActionClearHistory)},
		{Name: "help", Tier: TierUtility, Mode: ModeAny, Match: pattern(helpPattern), Build: fixed(ActionHelp)},

		{Name: "timer", Tier: TierParametric, Mode: ModeAny, Match: pattern(timerPattern), Build: buildTimer},
		{Name: "stopwatch", Tier: TierParametric, Mode: ModeAny, Match: pattern(stopwatchPattern), Build: buildStopwatch},

		{Name: "generate_image", Tier: TierGenerative, Mode: ModeAny, Match: c.matchImageTrigger, Build: buildGenerateImage},
	}
}

func pattern(re *regexp.Regexp) func(string) []string {
	return func(text string) []string {
		return re.FindStringSubmatch(text)
	}
}

func contains(phrase string) func(string) []string {
	return func(text string) []string {
		if strings.Contains(text, phrase) {
			return []string{phrase}
		}
		return nil
	}
}

func fixed(kind Kind) func(string, []string) Action {
	return func(string, []string) Action {
		return Action{Kind: kind}
	}
}

func (c *Classifier) matchImageTrigger(text string) []string {
	for _, trigger := range c.imageTriggers {
		rest, ok := strings.CutPrefix(text, trigger)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' {
			continue
		}
		return []string{trigger, strings.TrimSpace(rest)}
	}
	return nil
}

func buildGenerateImage(_ string, match []string) Action {
	prompt := match[1]
	if prompt == "" {
		return clarify("What would you like me to draw?")
	}
	return Action{Kind: ActionGenerateImage, Text: prompt}
}

func buildSetRate(_ string, match []string) Action {
	value, ok := parseNumber(match[1])
	if !ok {
		return clarify(fmt.Sprintf("What speed would you like? Say a number between %.1f and %.0f.", settings.MinRate, settings.MaxRate))
	}
	if err := settings.ValidateRate(value); err != nil {
		return invalid(fmt.Sprintf("Speed must be between %.1f and %.0f.", settings.MinRate, settings.MaxRate))
	}
	return Action{Kind: ActionSetRate, Value: value}
}

func buildSetPitch(_ string, match []string) Action {
	value, ok := parseNumber(match[1])
	if !ok {
		return clarify(fmt.Sprintf("What pitch would you like? Say a number between %.0f and %.0f.", settings.MinPitch, settings.MaxPitch))
	}
	if err := settings.ValidatePitch(value); err != nil {
		return invalid(fmt.Sprintf("Pitch must be between %.0f and %.0f.", settings.MinPitch, settings.MaxPitch))
	}
	return Action{Kind: ActionSetPitch, Value: value}
}

func buildSetVoice(_ string, match []string) Action {
	name := trimValue(match[1])
	if name == "" {
		return clarify("Which voice would you like?")
	}
	return Action{Kind: ActionSetVoice, Text: name}
}

func buildSetVisualizer(_ string, match []string) Action {
	return Action{Kind: ActionSetVisualizer, Enabled: !visualizerOffPattern.MatchString(match[1])}
}

func buildBackground(_ string, match []string) Action {
	name := strings.TrimPrefix(trimValue(match[1]), "a ")
	if name == "" {
		return Action{Kind: ActionBackground}
	}
	if _, ok := LookupColor(name); !ok {
		return clarify(fmt.Sprintf("I don't know the color %s.", name))
	}
	return Action{Kind: ActionBackground, Color: name}
}

func buildTimer(text string, _ []string) Action {
	duration, ok := ParseDuration(text)
	if !ok {
		return clarify("How long should the timer be? For example, set a timer for 5 minutes.")
	}
	return Action{Kind: ActionTimer, Duration: duration}
}

func buildStopwatch(text string, _ []string) Action {
	verb := stopwatchVerb.FindStringSubmatch(text)
	if verb == nil {
		return clarify("Should I start, stop, or reset the stopwatch?")
	}

	command := StopwatchCommand(verb[1])
	if verb[1] == "pause" {
		command = StopwatchStop
	}
	return Action{Kind: ActionStopwatch, Stopwatch: command}
}

// ParseDuration reads "<integer> (second|minute)s?" from text. A zero,
// missing or unrepresentable duration is not ok.
func ParseDuration(text string) (time.Duration, bool) {
	match := durationPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	amount, err := strconv.Atoi(match[1])
	if err != nil || amount <= 0 {
		return 0, false
	}

	unit := time.Second
	if match[2] == "minute" {
		unit = time.Minute
	}
	if int64(amount) > math.MaxInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(amount) * unit, true
}

func parseNumber(raw string) (float64, bool) {
	value := strings.TrimSuffix(trimValue(raw), "x")
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func trimValue(raw string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(raw), ".!?,"))
}

func clarify(message string) Action {
	return Action{Kind: ActionClarify, Message: message}
}

func invalid(message string) Action {
	return Action{Kind: ActionInvalidParameter, Message: message}
}
