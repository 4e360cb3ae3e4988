// Package prompt asks for task fields the command line left out.
package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var ErrCanceled = errors.New("prompt canceled")

// ErrNotInteractive is returned when a required field is missing and stdin is
// not a terminal.
var ErrNotInteractive = errors.New("missing task name (pass it as an argument; stdin is not a terminal)")

type Answers struct {
	Name        string
	Description string
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const (
	fieldName = iota
	fieldDescription
)

type model struct {
	inputs   []textinput.Model
	focus    int
	err      string
	done     bool
	canceled bool
}

func newModel(initial Answers) model {
	name := textinput.New()
	name.Placeholder = "Task name"
	name.CharLimit = 200
	name.Width = 50
	name.SetValue(initial.Name)
	name.Focus()

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 2000
	desc.Width = 50
	desc.SetValue(initial.Description)

	return model{inputs: []textinput.Model{name, desc}}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			return m.setFocus((m.focus + 1) % len(m.inputs)), nil
		case tea.KeyEnter:
			if strings.TrimSpace(m.inputs[fieldName].Value()) == "" {
				m.err = "name is required"
				return m.setFocus(fieldName), nil
			}
			if m.focus < len(m.inputs)-1 {
				return m.setFocus(m.focus + 1), nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m model) setFocus(i int) model {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

func (m model) View() string {
	if m.done || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("New task") + "\n\n")
	for _, in := range m.inputs {
		b.WriteString(in.View() + "\n")
	}
	if m.err != "" {
		b.WriteString(errStyle.Render(m.err) + "\n")
	}
	b.WriteString(hintStyle.Render("enter: next/confirm · tab: switch · esc: cancel") + "\n")
	return b.String()
}

func (m model) answers() Answers {
	return Answers{
		Name:        strings.TrimSpace(m.inputs[fieldName].Value()),
		Description: strings.TrimSpace(m.inputs[fieldDescription].Value()),
	}
}

// Ask runs the form on in/out, prefilled with initial. It fails with
// ErrNotInteractive when in is not a terminal.
func Ask(ctx context.Context, in io.Reader, out io.Writer, initial Answers) (Answers, error) {
	if !IsTerminal(in) {
		return Answers{}, ErrNotInteractive
	}
	p := tea.NewProgram(newModel(initial),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return Answers{}, err
	}
	m := final.(model)
	if m.canceled {
		return Answers{}, ErrCanceled
	}
	return m.answers(), nil
}
