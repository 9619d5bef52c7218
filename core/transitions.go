package orchestration

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/commands"
	"github.com/koscakluka/ema-voice/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const microphoneRequiredMessage = "I need microphone access for the visualizer to work."

func (o *Orchestrator) handleTranscript(text string, typed bool) {
	utterance := commands.NewUtterance(text)
	if utterance.IsEmpty() {
		return
	}
	o.emit(events.NewUserTranscriptFinal(text, typed))

	if o.state == StateDormant {
		if o.activation.Matches(utterance) {
			o.activate()
		} else {
			logger.Debug("ignoring transcript while dormant", "transcript", utterance.Text())
		}
		return
	}

	action := o.classifier.Classify(utterance, o.mode)
	if o.suppressed && action.Kind != commands.ActionDeactivate && action.Kind != commands.ActionInterrupt {
		logger.Debug("dropping transcript while suppressed", "state", o.state.String(), "transcript", utterance.Text())
		return
	}

	actionCounter.Add(o.baseContext, 1, metric.WithAttributes(
		attribute.String("action.kind", string(action.Kind)),
		attribute.String("action.rule", action.Rule),
	))
	logger.Debug("classified utterance", "kind", string(action.Kind), "rule", action.Rule)
	o.execute(action)
}

func (o *Orchestrator) activate() {
	o.session = uuid.NewString()
	o.conversation.Reset()
	o.mode = commands.ModeDefault
	o.setState(StateListening)
	o.playTone(audio.ActivationTone)

	if o.settings.VisualizerEnabled && o.microphone.isConfigured() && o.microphoneErr != nil && !o.microphoneReported {
		o.microphoneReported = true
		o.respond(microphoneRequiredMessage, false)
		return
	}
	if o.greeting != "" {
		o.respond(o.greeting, false)
	}
}

func (o *Orchestrator) deactivate() {
	o.cancelPlayback()
	o.cancelPendingRequest()
	o.session = ""
	o.conversation.Clear()
	o.setMode(commands.ModeDefault)

	o.settleGeneration++
	o.setState(StateDormant)
	o.setSuppressed(false)
	o.playTone(audio.DeactivationTone)
	o.emit(events.NewAssistantResponseFinal(fmt.Sprintf("Say %q to activate", o.activation.Phrase), false))
	o.startRecognition()
}

// interrupt stops whatever the assistant is doing and lifts suppression
// right away, skipping the settle delay.
func (o *Orchestrator) interrupt() {
	switch o.state {
	case StateSpeaking:
		o.cancelPlayback()
	case StateProcessing:
		o.cancelPendingRequest()
		o.cancelPlayback()
	case StateListening:
		if !o.suppressed {
			return
		}
	default:
		logger.Debug("nothing to interrupt", "state", o.state.String())
		return
	}

	o.settleGeneration++
	o.setState(StateListening)
	o.setSuppressed(false)
	o.startRecognition()
}

func (o *Orchestrator) setState(to State) {
	from := o.state
	if from == to {
		return
	}

	o.state = to
	o.stateValue.Store(int32(to))
	o.microphone.SetLevelsEnabled(to.IsActive() && o.settings.VisualizerEnabled && o.microphoneErr == nil)
	if to.suppresses() {
		o.setSuppressed(true)
	}

	logger.Debug("state changed", "from", from.String(), "to", to.String())
	o.emit(events.NewAssistantStateChanged(from.String(), to.String()))
}

func (o *Orchestrator) setSuppressed(suppressed bool) {
	if o.suppressed == suppressed {
		return
	}
	o.suppressed = suppressed
	o.emit(events.NewAssistantSuppressionChanged(suppressed))
}

func (o *Orchestrator) setMode(mode commands.Mode) {
	if o.mode == mode {
		return
	}
	o.mode = mode
	o.emit(events.NewWidgetSettingsModeChanged(mode == commands.ModeSettings))
}

func (o *Orchestrator) playTone(tone audio.Tone) {
	o.emit(events.NewWidgetToneEmitted(tone.Name))
	if o.tones == nil {
		return
	}
	if err := o.tones.PlayTone(tone); err != nil {
		logger.Warn("failed to play tone", "tone", tone.Name, "error", err)
	}
}
