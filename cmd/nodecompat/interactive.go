package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/node-compat/host/cli"
	"github.com/wippyai/node-compat/resolve"
	"github.com/wippyai/node-compat/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxEntries bounds the transcript kept on screen.
const maxEntries = 20

type entry struct {
	err    error
	input  string
	output string
}

type interactiveModel struct {
	err     error
	rt      *runtime.Runtime
	opts    runtime.Options
	input   textinput.Model
	entries []entry
	history []string
	histIdx int
	busy    bool
}

func newInteractiveModel(opts runtime.Options) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("> ")
	ti.Placeholder = `require("node:path").join("a", "b")`
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{opts: opts, input: ti}
}

type startedMsg struct {
	err error
	rt  *runtime.Runtime
}

type evalMsg struct {
	entry entry
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start)
}

func (m *interactiveModel) start() tea.Msg {
	rt, err := runtime.New(context.Background(), m.opts)
	if err != nil {
		return startedMsg{err: err}
	}
	rt.Start()
	return startedMsg{rt: rt}
}

func (m *interactiveModel) close() {
	if m.rt != nil {
		m.rt.Close(context.Background())
		m.rt = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			m.close()
			return m, tea.Quit

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil

		case "enter":
			src := strings.TrimSpace(m.input.Value())
			if src == "" || m.busy || m.rt == nil {
				return m, nil
			}
			m.history = append(m.history, src)
			m.histIdx = len(m.history)
			m.input.SetValue("")
			if out, ok := m.command(src); ok {
				m.push(entry{input: src, output: out})
				return m, nil
			}
			m.busy = true
			return m, m.eval(src)
		}

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt

	case evalMsg:
		m.busy = false
		m.push(msg.entry)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// command handles the dot commands that inspect the runtime rather than
// evaluate script text.
func (m *interactiveModel) command(src string) (string, bool) {
	switch src {
	case ".modules":
		specs := resolve.Specifiers()
		for i, s := range specs {
			specs[i] = moduleStyle.Render(s)
		}
		return strings.Join(specs, "\n"), true
	case ".diag":
		recs := m.rt.Diagnostics()
		if len(recs) == 0 {
			return "no import errors", true
		}
		lines := make([]string, len(recs))
		for i, r := range recs {
			lines[i] = fmt.Sprintf("%s: %s", r.Specifier, r.Message)
		}
		return strings.Join(lines, "\n"), true
	case ".caps":
		caps := m.rt.Capabilities().List()
		names := make([]string, len(caps))
		for i, c := range caps {
			names[i] = string(c)
		}
		return strings.Join(names, "\n"), true
	}
	return "", false
}

func (m *interactiveModel) eval(src string) tea.Cmd {
	rt := m.rt
	return func() tea.Msg {
		out, err := rt.Eval(context.Background(), src)
		return evalMsg{entry: entry{input: src, output: out, err: err}}
	}
}

func (m *interactiveModel) push(e entry) {
	m.entries = append(m.entries, e)
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}
	if m.rt == nil {
		return "Starting runtime..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("node-compat"))
	b.WriteString("\n\n")

	for _, e := range m.entries {
		b.WriteString(promptStyle.Render("> "))
		b.WriteString(e.input)
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(errorStyle.Render(e.err.Error()))
		} else {
			b.WriteString(resultStyle.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(".modules • .diag • .caps • ↑/↓ history • ctrl+c quit"))
	return b.String()
}

func runInteractive(opts runtime.Options) error {
	if !cli.StdinIsTerminal() || !cli.StdoutIsTerminal() {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	// console output would tear the TUI
	opts.Console = false
	m := newInteractiveModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.close()
	return err
}
