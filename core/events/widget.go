package events

import "time"

const (
	KindWidgetBackgroundChanged   Kind = "widget.background_changed"
	KindWidgetTimerSet            Kind = "widget.timer_set"
	KindWidgetStopwatchChanged    Kind = "widget.stopwatch_changed"
	KindWidgetToneEmitted         Kind = "widget.tone_emitted"
	KindWidgetSettingsModeChanged Kind = "widget.settings_mode_changed"
	KindWidgetVisualizerToggled   Kind = "widget.visualizer_toggled"
)

type WidgetBackgroundChanged struct {
	Base
	Name string
	Hex  string
}

func NewWidgetBackgroundChanged(name, hex string) WidgetBackgroundChanged {
	return WidgetBackgroundChanged{Base: NewBase(KindWidgetBackgroundChanged), Name: name, Hex: hex}
}

type WidgetTimerSet struct {
	Base
	Duration time.Duration
}

func NewWidgetTimerSet(duration time.Duration) WidgetTimerSet {
	return WidgetTimerSet{Base: NewBase(KindWidgetTimerSet), Duration: duration}
}

// WidgetStopwatchChanged carries "start", "stop" or "reset".
type WidgetStopwatchChanged struct {
	Base
	Command string
}

func NewWidgetStopwatchChanged(command string) WidgetStopwatchChanged {
	return WidgetStopwatchChanged{Base: NewBase(KindWidgetStopwatchChanged), Command: command}
}

type WidgetToneEmitted struct {
	Base
	Tone string
}

func NewWidgetToneEmitted(tone string) WidgetToneEmitted {
	return WidgetToneEmitted{Base: NewBase(KindWidgetToneEmitted), Tone: tone}
}

type WidgetSettingsModeChanged struct {
	Base
	Open bool
}

func NewWidgetSettingsModeChanged(open bool) WidgetSettingsModeChanged {
	return WidgetSettingsModeChanged{Base: NewBase(KindWidgetSettingsModeChanged), Open: open}
}

type WidgetVisualizerToggled struct {
	Base
	Enabled bool
}

func NewWidgetVisualizerToggled(enabled bool) WidgetVisualizerToggled {
	return WidgetVisualizerToggled{Base: NewBase(KindWidgetVisualizerToggled), Enabled: enabled}
}
