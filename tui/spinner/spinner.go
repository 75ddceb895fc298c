// Package spinner shows a terminal spinner while a blocking call runs.
package spinner

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type doneMsg struct{ err error }

type model struct {
	spinner spinner.Model
	label   string
	done    bool
	err     error
}

func newModel(label string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{spinner: s, label: label}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// Run draws a spinner on out until fn returns, then clears it and returns
// fn's error. The program neither reads input nor installs signal handlers,
// so the caller keeps control of stdin and Ctrl+C.
func Run(ctx context.Context, out io.Writer, label string, fn func() error) error {
	p := tea.NewProgram(newModel(label),
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)

	result := make(chan error, 1)
	go func() {
		err := fn()
		result <- err
		p.Send(doneMsg{err: err})
	}()

	// A spinner failure is cosmetic; fn still owns the outcome.
	_, _ = p.Run()
	return <-result
}
