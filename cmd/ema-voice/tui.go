package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/muesli/reflow/wordwrap"
)

const (
	maxHistory   = 50
	levelBarSize = 20
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	widgetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	stateStyles = map[orchestration.State]lipgloss.Style{
		orchestration.StateDormant:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		orchestration.StateListening:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		orchestration.StateSpeaking:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		orchestration.StateProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")),
	}
)

// Messages sent from orchestration callbacks into the program.

type stateMsg struct{ to orchestration.State }

type transcriptMsg struct{ text string }

type interimMsg struct{ text string }

type thinkingMsg struct{}

type partialMsg struct{ text string }

type responseMsg struct {
	text     string
	markdown bool
}

type imagesMsg struct {
	prompt string
	paths  []string
}

type backgroundMsg struct{ name, hex string }

type timerMsg struct{ duration time.Duration }

type stopwatchMsg struct{ command string }

type settingsMsg struct{ open bool }

type visualizerMsg struct{ enabled bool }

type levelMsg struct{ level float64 }

type errorMsg struct{ err error }

type tickMsg time.Time

type entry struct {
	user     bool
	text     string
	markdown bool
}

type model struct {
	orchestrator *orchestration.Orchestrator

	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	width    int

	state      orchestration.State
	thinking   bool
	interim    string
	partial    string
	history    []entry
	background lipgloss.Style
	settings   bool
	visualizer bool
	level      float64
	lastErr    error

	timerEnds      time.Time
	stopwatchStart time.Time
	stopwatchTotal time.Duration
}

func newModel(o *orchestration.Orchestrator) model {
	input := textinput.New()
	input.Placeholder = `Type a command, e.g. "start"`
	input.Focus()
	input.CharLimit = 512

	s := spinner.New()
	s.Spinner = spinner.Dot

	return model{
		orchestrator: o,
		input:        input,
		spinner:      s,
		width:        80,
		background:   lipgloss.NewStyle(),
		visualizer:   true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.orchestrator.Interrupt()
			return m, nil
		case tea.KeyEnter:
			if text := strings.TrimSpace(m.input.Value()); text != "" {
				m.orchestrator.SendTranscript(text)
			}
			m.input.SetValue("")
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		if renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(m.width)); err == nil {
			m.renderer = renderer
		}

	case stateMsg:
		m.state = msg.to
		if msg.to != orchestration.StateProcessing {
			m.thinking = false
		}
	case transcriptMsg:
		m.interim = ""
		m.push(entry{user: true, text: msg.text})
	case interimMsg:
		m.interim = msg.text
	case thinkingMsg:
		m.thinking = true
		m.partial = ""
	case partialMsg:
		m.partial = msg.text
	case responseMsg:
		m.thinking = false
		m.partial = ""
		m.push(entry{text: msg.text, markdown: msg.markdown})
	case imagesMsg:
		m.push(entry{text: fmt.Sprintf("Image of %q saved to %s", msg.prompt, strings.Join(msg.paths, ", "))})
	case backgroundMsg:
		m.background = lipgloss.NewStyle().BorderStyle(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color(msg.hex))
	case timerMsg:
		m.timerEnds = time.Now().Add(msg.duration)
	case stopwatchMsg:
		m.updateStopwatch(msg.command)
	case settingsMsg:
		m.settings = msg.open
	case visualizerMsg:
		m.visualizer = msg.enabled
	case levelMsg:
		m.level = msg.level
	case errorMsg:
		m.lastErr = msg.err
	case tickMsg:
		cmds = append(cmds, tick())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) push(e entry) {
	m.history = append(m.history, e)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func (m *model) updateStopwatch(command string) {
	switch command {
	case "start":
		if m.stopwatchStart.IsZero() {
			m.stopwatchStart = time.Now()
		}
	case "stop":
		if !m.stopwatchStart.IsZero() {
			m.stopwatchTotal += time.Since(m.stopwatchStart)
			m.stopwatchStart = time.Time{}
		}
	case "reset":
		m.stopwatchStart = time.Time{}
		m.stopwatchTotal = 0
	}
}

func (m model) View() string {
	var b strings.Builder

	header := titleStyle.Render("ema-voice") + "  " + stateStyles[m.state].Render(m.state.String())
	if m.settings {
		header += "  " + dimStyle.Render("[settings]")
	}
	b.WriteString(header + "\n\n")

	for _, e := range m.history {
		b.WriteString(m.renderEntry(e) + "\n")
	}

	if m.interim != "" {
		b.WriteString(dimStyle.Render("… "+m.interim) + "\n")
	}
	if m.thinking {
		status := "Thinking..."
		if m.partial != "" {
			status = m.partial
		}
		b.WriteString(m.spinner.View() + " " + wordwrap.String(status, max(m.width-2, 10)) + "\n")
	} else if m.partial != "" {
		b.WriteString(m.spinner.View() + " " + m.renderMarkdown(m.partial) + "\n")
	}

	if widgets := m.widgets(); widgets != "" {
		b.WriteString("\n" + widgetStyle.Render(widgets) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("error: "+m.lastErr.Error()) + "\n")
	}

	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(dimStyle.Render("enter send • esc interrupt • ctrl+c quit"))

	return m.background.Render(b.String())
}

func (m model) renderEntry(e entry) string {
	if e.user {
		return userStyle.Render("> " + wordwrap.String(e.text, max(m.width-2, 10)))
	}
	if e.markdown {
		return m.renderMarkdown(e.text)
	}
	return wordwrap.String(e.text, m.width)
}

func (m model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return wordwrap.String(text, m.width)
	}
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return wordwrap.String(text, m.width)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m model) widgets() string {
	parts := []string{}
	if m.visualizer && m.state.IsActive() {
		filled := min(max(int(m.level*levelBarSize), 0), levelBarSize)
		parts = append(parts, "mic "+strings.Repeat("█", filled)+strings.Repeat("░", levelBarSize-filled))
	}
	if !m.timerEnds.IsZero() {
		if remaining := time.Until(m.timerEnds); remaining > 0 {
			parts = append(parts, "timer "+remaining.Round(time.Second).String())
		} else {
			parts = append(parts, "timer done")
		}
	}
	if elapsed := m.stopwatchTotal; elapsed > 0 || !m.stopwatchStart.IsZero() {
		if !m.stopwatchStart.IsZero() {
			elapsed += time.Since(m.stopwatchStart)
		}
		parts = append(parts, "stopwatch "+elapsed.Round(time.Second).String())
	}
	return strings.Join(parts, "  ")
}

// callbacks forwards orchestration callbacks to the program.
func callbacks(send func(tea.Msg)) []orchestration.OrchestrateOption {
	return []orchestration.OrchestrateOption{
		orchestration.WithStateChangedCallback(func(_, to orchestration.State) { send(stateMsg{to: to}) }),
		orchestration.WithTranscriptionCallback(func(text string) { send(transcriptMsg{text: text}) }),
		orchestration.WithInterimTranscriptionCallback(func(text string) { send(interimMsg{text: text}) }),
		orchestration.WithThinkingCallback(func() { send(thinkingMsg{}) }),
		orchestration.WithPartialResponseCallback(func(text string) { send(partialMsg{text: text}) }),
		orchestration.WithResponseCallback(func(text string, markdown bool) {
			send(responseMsg{text: text, markdown: markdown})
		}),
		orchestration.WithImagesCallback(func(prompt string, images []llms.Image) {
			paths, err := saveImages(images)
			if err != nil {
				send(errorMsg{err: err})
			}
			send(imagesMsg{prompt: prompt, paths: paths})
		}),
		orchestration.WithBackgroundCallback(func(name, hex string) { send(backgroundMsg{name: name, hex: hex}) }),
		orchestration.WithTimerCallback(func(d time.Duration) { send(timerMsg{duration: d}) }),
		orchestration.WithStopwatchCallback(func(command string) { send(stopwatchMsg{command: command}) }),
		orchestration.WithSettingsModeCallback(func(open bool) { send(settingsMsg{open: open}) }),
		orchestration.WithVisualizerCallback(func(enabled bool) { send(visualizerMsg{enabled: enabled}) }),
		orchestration.WithInputLevelCallback(func(level float64) { send(levelMsg{level: level}) }),
		orchestration.WithErrorCallback(func(err error) { send(errorMsg{err: err}) }),
	}
}

func saveImages(images []llms.Image) ([]string, error) {
	dir := filepath.Join(os.TempDir(), "ema-voice")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	paths := make([]string, 0, len(images))
	for _, image := range images {
		extension := ".png"
		if image.MIMEType == "image/jpeg" {
			extension = ".jpg"
		}
		file, err := os.CreateTemp(dir, "image-*"+extension)
		if err != nil {
			return paths, fmt.Errorf("failed to save image: %w", err)
		}
		_, err = file.Write(image.Data)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return paths, fmt.Errorf("failed to save image: %w", err)
		}
		paths = append(paths, file.Name())
	}
	return paths, nil
}
