package main

import (
	"bytes"
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/plugsh/plugsh/engine"
	"github.com/plugsh/plugsh/shell"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	guestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// historyMax bounds the scrollback kept in memory.
const historyMax = 500

// interactiveModel wraps the shell dispatch loop in a TUI: one text input
// feeding Eval, with the console output rendered as scrollback.
type interactiveModel struct {
	ctx     context.Context
	sh      *shell.Shell
	out     *bytes.Buffer
	input   textinput.Model
	history []string
}

func newInteractiveModel(ctx context.Context, eng *engine.Engine, logger *zap.Logger, preload []string) *interactiveModel {
	out := &bytes.Buffer{}
	sh := shell.New(shell.Options{
		Engine: eng,
		Output: out,
		Logger: logger,
	})

	ti := textinput.New()
	ti.Prompt = promptStyle.Render(shell.Prompt)
	ti.Focus()

	m := &interactiveModel{ctx: ctx, sh: sh, out: out, input: ti}
	m.history = append(m.history, strings.Split(shell.WelcomeMsg, "\n")...)

	sh.Preload(ctx, preload)
	m.flushOutput()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

// flushOutput moves everything the shell wrote since the last call into the
// scrollback, coloring error and guest log lines.
func (m *interactiveModel) flushOutput() {
	text := m.out.String()
	m.out.Reset()
	if text == "" {
		return
	}

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "ERR:"):
			line = errorStyle.Render(line)
		case strings.HasPrefix(line, "DEBUG: "),
			strings.HasPrefix(line, "INFO: "),
			strings.HasPrefix(line, "WARN: "),
			strings.HasPrefix(line, "ERROR: "):
			line = guestStyle.Render(line)
		}
		m.history = append(m.history, line)
	}
	if len(m.history) > historyMax {
		m.history = m.history[len(m.history)-historyMax:]
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "enter":
			line := m.input.Value()
			m.input.Reset()
			m.history = append(m.history, promptStyle.Render(shell.Prompt)+line)

			m.sh.Eval(m.ctx, line)
			m.flushOutput()

			if !m.sh.Context().Running() {
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("plugsh"))
	b.WriteString("\n\n")
	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run • ctrl+c quit"))

	return b.String()
}

func runInteractive(ctx context.Context, eng *engine.Engine, logger *zap.Logger, preload []string) error {
	p := tea.NewProgram(newInteractiveModel(ctx, eng, logger, preload), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
