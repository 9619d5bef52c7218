package main

import (
	"fmt"
	"strings"

	"github.com/koscakluka/ema-voice/core/conversations"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "EMA_VOICE"

type config struct {
	Backend string `mapstructure:"backend"`
	Model   string `mapstructure:"model"`
	Stream  bool   `mapstructure:"stream"`
	GroqURL string `mapstructure:"groq-url"`

	Audio string `mapstructure:"audio"`
	Voice bool   `mapstructure:"voice"`

	MaxTurns         int    `mapstructure:"max-turns"`
	ActivationPhrase string `mapstructure:"activation-phrase"`
	ActivationExact  bool   `mapstructure:"activation-exact"`
	Greeting         string `mapstructure:"greeting"`
	Locale           string `mapstructure:"locale"`
	SettingsPath     string `mapstructure:"settings"`
	LogFile          string `mapstructure:"log-file"`

	GeminiAPIKey   string `mapstructure:"gemini-api-key"`
	GroqAPIKey     string `mapstructure:"groq-api-key"`
	DeepgramAPIKey string `mapstructure:"deepgram-api-key"`
}

func addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("backend", "gemini", "completion backend: gemini or groq")
	flags.String("model", "", "backend model, empty for the backend default")
	flags.Bool("stream", true, "stream responses from the backend")
	flags.String("groq-url", "", "OpenAI compatible chat completions URL used by the groq backend")
	flags.String("audio", "miniaudio", "audio devices: miniaudio, portaudio (capture only) or none")
	flags.Bool("voice", true, "use Deepgram for speech recognition and synthesis")
	flags.Int("max-turns", conversations.DefaultMaxTurns, "turns kept in the conversation, preamble included")
	flags.String("activation-phrase", "start", "phrase that wakes the assistant")
	flags.Bool("activation-exact", false, "require the activation phrase as whole words")
	flags.String("greeting", "", "text spoken after activation")
	flags.String("locale", texttospeech.DefaultLocale, "locale used to pick a voice")
	flags.String("settings", "", "settings file, defaults to the user config directory")
	flags.String("log-file", "", "write logs to this file instead of discarding them")
}

// loadConfig merges flags, EMA_VOICE_* variables and the provider API key
// variables.
func loadConfig(cmd *cobra.Command) (config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config{}, fmt.Errorf("failed to bind flags: %w", err)
	}
	for key, env := range map[string]string{
		"gemini-api-key":   "GEMINI_API_KEY",
		"groq-api-key":     "GROQ_API_KEY",
		"deepgram-api-key": "DEEPGRAM_API_KEY",
	} {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), env); err != nil {
			return config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.Backend {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini backend")
		}
	case "groq":
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY is required for the groq backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Audio {
	case "miniaudio", "portaudio", "none":
	default:
		return fmt.Errorf("unknown audio driver %q", c.Audio)
	}

	if c.Voice && c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required for voice, or pass --voice=false")
	}
	return nil
}
