package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultScrollback = 18

// TUIOptions configures the full-screen session host.
type TUIOptions struct {
	Title   string
	NoColor bool
	Observe Observer

	// Scrollback is the number of transcript lines kept on screen.
	Scrollback int

	// Input and Output override the terminal; used by tests.
	Input  io.Reader
	Output io.Writer
}

// TUIModel adapts a Machine to Bubble Tea.
type TUIModel struct {
	machine    Machine
	input      textinput.Model
	transcript []string
	prompt     string
	title      string
	observe    Observer
	scrollback int
	aborted    bool
	styles     tuiStyles
}

type tuiStyles struct {
	title  lipgloss.Style
	body   lipgloss.Style
	prompt lipgloss.Style
	help   lipgloss.Style
}

func newStyles(noColor bool) tuiStyles {
	if noColor {
		plain := lipgloss.NewStyle()
		return tuiStyles{title: plain.Bold(true), body: plain, prompt: plain, help: plain}
	}
	return tuiStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2D9B9B")),
		body:   lipgloss.NewStyle(),
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5A5A")),
		help:   lipgloss.NewStyle().Faint(true),
	}
}

// NewTUIModel starts m and returns a model ready to be run by Bubble Tea.
func NewTUIModel(m Machine, opts TUIOptions) TUIModel {
	ti := textinput.New()
	ti.Placeholder = "type and press enter"
	ti.Focus()
	ti.CharLimit = 512

	scrollback := opts.Scrollback
	if scrollback <= 0 {
		scrollback = defaultScrollback
	}
	model := TUIModel{
		machine:    m,
		input:      ti,
		title:      opts.Title,
		observe:    opts.Observe,
		scrollback: scrollback,
		styles:     newStyles(opts.NoColor),
	}
	return model.apply(m.Start())
}

func (m TUIModel) Init() tea.Cmd {
	if m.machine.Done() {
		return tea.Quit
	}
	return textinput.Blink
}

func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.SetValue("")
			m = m.apply(m.machine.Handle(line))
			if m.machine.Done() {
				return m, tea.Quit
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m TUIModel) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.styles.title.Render(m.title))
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.body.Render(strings.Join(m.transcript, "\n")))
	b.WriteString("\n")
	if !m.machine.Done() {
		b.WriteString(m.styles.prompt.Render(m.prompt))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.styles.help.Render("esc to leave"))
	}
	return b.String()
}

// Aborted reports whether the user left before the session finished.
func (m TUIModel) Aborted() bool {
	return m.aborted
}

// Transcript returns the lines currently on screen.
func (m TUIModel) Transcript() []string {
	return append([]string(nil), m.transcript...)
}

func (m TUIModel) apply(out Output) TUIModel {
	m.transcript = append(m.transcript, out.Lines...)
	if overflow := len(m.transcript) - m.scrollback; overflow > 0 {
		m.transcript = append([]string(nil), m.transcript[overflow:]...)
	}
	m.prompt = strings.TrimSpace(out.Prompt)
	if m.observe != nil {
		m.observe(out)
	}
	return m
}

// RunTUI runs m full screen until it finishes or the user leaves.
func RunTUI(ctx context.Context, m Machine, opts TUIOptions) error {
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	} else {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(NewTUIModel(m, opts), programOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", ErrAborted, err)
		}
		return fmt.Errorf("run tui: %w", err)
	}
	if model, ok := final.(TUIModel); ok && model.Aborted() {
		return ErrAborted
	}
	if !m.Done() {
		return ErrAborted
	}
	return nil
}
