// avatar-chat is a terminal front end for the avatar pipeline: type a
// prompt (or speak, when a Deepgram key is configured) and watch the
// response stream in while it is synthesized and played sentence by
// sentence.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/kotonelabs/avatar-core/core"
	"github.com/kotonelabs/avatar-core/core/audio/miniaudio"
	"github.com/kotonelabs/avatar-core/core/llms/openai"
	"github.com/kotonelabs/avatar-core/core/playback/wsbridge"
	sttdeepgram "github.com/kotonelabs/avatar-core/core/speechtotext/deepgram"
	"github.com/kotonelabs/avatar-core/core/texttospeech/koeiromap"
)

const defaultSystemPrompt = "You are a friendly virtual avatar. Prefix sentences " +
	"with an emotion tag like [happy], [sad], [angry], [relaxed] or [neutral]."

type chatLine struct {
	speaker string
	text    string
}

type model struct {
	viewport  viewport.Model
	input     textinput.Model
	lines     []chatLine
	streaming string
	status    string
	ready     bool

	orchestrator *orchestration.Orchestrator
}

type responseSegmentMsg string

type responseEndMsg string

type speechStartedMsg struct{ expression string }

type playbackEndedMsg struct{}

type transcriptMsg string

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func newModel(orchestrator *orchestration.Orchestrator) model {
	input := textinput.New()
	input.Placeholder = "Say something..."
	input.Focus()
	input.CharLimit = 1024

	return model{
		input:        input,
		orchestrator: orchestrator,
		status:       "ready",
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			prompt := strings.TrimSpace(m.input.Value())
			if prompt != "" {
				m.lines = append(m.lines, chatLine{speaker: "you", text: prompt})
				m.input.Reset()
				m.streaming = ""
				m.status = "thinking"
				m.orchestrator.SendPrompt(prompt)
			}
			m.refreshViewport()
			return m, nil
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-3)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 3
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()

	case transcriptMsg:
		m.lines = append(m.lines, chatLine{speaker: "you", text: string(msg)})
		m.streaming = ""
		m.status = "thinking"
		m.refreshViewport()

	case responseSegmentMsg:
		m.streaming += string(msg)
		m.refreshViewport()

	case responseEndMsg:
		m.lines = append(m.lines, chatLine{speaker: "avatar", text: string(msg)})
		m.streaming = ""
		m.status = "speaking"
		m.refreshViewport()

	case speechStartedMsg:
		m.status = "speaking (" + msg.expression + ")"

	case playbackEndedMsg:
		m.status = "ready"
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}

	var builder strings.Builder
	for _, line := range m.lines {
		style := assistantStyle
		if line.speaker == "you" {
			style = userStyle
		}
		builder.WriteString(style.Render(line.speaker+": ") + line.text + "\n")
	}
	if m.streaming != "" {
		builder.WriteString(assistantStyle.Render("avatar: ") + m.streaming + "\n")
	}

	m.viewport.SetContent(wordwrap.String(builder.String(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}
	return m.viewport.View() + "\n" +
		statusStyle.Render("["+m.status+"]") + "\n" +
		m.input.View()
}

func buildSink(ctx context.Context) (orchestration.PlaybackSink, func(), error) {
	if url := os.Getenv("RENDERER_WS_URL"); url != "" {
		sink := wsbridge.NewSink(url)
		if err := sink.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return sink, func() { sink.Close() }, nil
	}

	player, err := miniaudio.NewClient()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	return orchestration.NewLocalPlaybackSink(player), player.Close, nil
}

func chatModel() string {
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		return model
	}
	return "gpt-4o-mini"
}

func main() {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	koeiromapKey := os.Getenv("KOEIROMAP_API_KEY")
	if openaiKey == "" || koeiromapKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY and KOEIROMAP_API_KEY must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, closeSink, err := buildSink(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to set up playback:", err)
		os.Exit(1)
	}
	defer closeSink()

	options := []orchestration.OrchestratorOption{
		orchestration.WithStreamingChat(openai.NewClient(openaiKey, chatModel())),
		orchestration.WithSynthesizer(koeiromap.NewClient(koeiromapKey)),
		orchestration.WithPlaybackSink(sink),
		orchestration.WithSystemPrompt(defaultSystemPrompt),
		orchestration.WithVoice(orchestration.VoiceParams{SpeakerX: 1.32, SpeakerY: 1.88}),
	}
	if os.Getenv("DEEPGRAM_API_KEY") != "" {
		options = append(options, orchestration.WithSpeechToTextClient(sttdeepgram.NewTranscriptionClient()))
	}

	orchestrator := orchestration.NewOrchestrator(options...)
	defer orchestrator.Close()

	program := tea.NewProgram(newModel(orchestrator), tea.WithAltScreen())

	err = orchestrator.Orchestrate(ctx,
		orchestration.WithResponseCallback(func(segment string) {
			program.Send(responseSegmentMsg(segment))
		}),
		orchestration.WithResponseEndCallback(func(response string) {
			program.Send(responseEndMsg(response))
		}),
		orchestration.WithSpeechStartedCallback(func(_, _, expression string) {
			program.Send(speechStartedMsg{expression: expression})
		}),
		orchestration.WithPlaybackEndedCallback(func(string) {
			program.Send(playbackEndedMsg{})
		}),
		orchestration.WithPromptCallback(func(prompt string, isTranscribed bool) {
			if isTranscribed {
				program.Send(transcriptMsg(prompt))
			}
		}),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start orchestration:", err)
		os.Exit(1)
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error running program:", err)
		os.Exit(1)
	}
}
