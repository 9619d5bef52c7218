package commands

import (
	"strings"
)

const (
	DefaultDeactivationPhrase = "stop listening"
	DefaultInterruptPhrase    = "interrupt"
)

var DefaultImageTriggers = []string{
	"generate an image of",
	"create an image of",
	"generate a picture of",
	"draw a picture of",
}

// Tier orders rules. Lower tiers are evaluated first.
type Tier int

const (
	TierModeEscape Tier = iota + 1
	TierModeScoped
	TierUtility
	TierParametric
	TierGenerative
	TierFallthrough
)

// Rule is one entry of the classification table. Match returns the
// submatches Build receives; a nil slice means no match.
type Rule struct {
	Name  string
	Tier  Tier
	Mode  Mode
	Match func(text string) []string
	Build func(text string, match []string) Action
}

func (r Rule) appliesTo(mode Mode) bool {
	return r.Mode == ModeAny || r.Mode == mode
}

// RuleInfo describes a rule without its functions.
type RuleInfo struct {
	Name string
	Tier Tier
	Mode Mode
}

type Classifier struct {
	deactivationPhrase string
	interruptPhrase    string
	imageTriggers      []string

	rules []Rule
}

type ClassifierOption func(*Classifier)

func WithDeactivationPhrase(phrase string) ClassifierOption {
	return func(c *Classifier) {
		if phrase = normalizePhrase(phrase); phrase != "" {
			c.deactivationPhrase = phrase
		}
	}
}

func WithInterruptPhrase(phrase string) ClassifierOption {
	return func(c *Classifier) {
		if phrase = normalizePhrase(phrase); phrase != "" {
			c.interruptPhrase = phrase
		}
	}
}

// WithImageTriggers replaces the prefixes that start an image request.
func WithImageTriggers(triggers ...string) ClassifierOption {
	return func(c *Classifier) {
		normalized := make([]string, 0, len(triggers))
		for _, trigger := range triggers {
			if trigger = normalizePhrase(trigger); trigger != "" {
				normalized = append(normalized, trigger)
			}
		}
		if len(normalized) > 0 {
			c.imageTriggers = normalized
		}
	}
}

func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		deactivationPhrase: DefaultDeactivationPhrase,
		interruptPhrase:    DefaultInterruptPhrase,
		imageTriggers:      append([]string(nil), DefaultImageTriggers...),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rules = c.buildRules()
	return c
}

// Classify maps an utterance to exactly one action. It has no side
// effects.
func (c *Classifier) Classify(u Utterance, mode Mode) Action {
	text := u.Text()
	for _, rule := range c.rules {
		if !rule.appliesTo(mode) {
			continue
		}
		match := rule.Match(text)
		if match == nil {
			continue
		}
		action := rule.Build(text, match)
		action.Rule = rule.Name
		return action
	}

	return Action{Kind: ActionConverse, Rule: "converse", Text: text}
}

// Rules lists the table in evaluation order.
func (c *Classifier) Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(c.rules)+1)
	for _, rule := range c.rules {
		infos = append(infos, RuleInfo{Name: rule.Name, Tier: rule.Tier, Mode: rule.Mode})
	}
	return append(infos, RuleInfo{Name: "converse", Tier: TierFallthrough, Mode: ModeAny})
}

func (c *Classifier) DeactivationPhrase() string { return c.deactivationPhrase }
func (c *Classifier) InterruptPhrase() string    { return c.interruptPhrase }

// IsDeactivation reports whether the utterance asks to deactivate.
func (c *Classifier) IsDeactivation(u Utterance) bool {
	return strings.Contains(u.Text(), c.deactivationPhrase)
}

// IsInterrupt reports whether the utterance asks to stop the current
// response.
func (c *Classifier) IsInterrupt(u Utterance) bool {
	return strings.Contains(u.Text(), c.interruptPhrase)
}

func normalizePhrase(phrase string) string {
	return strings.ToLower(strings.TrimSpace(phrase))
}
