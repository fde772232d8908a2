package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// taskFunc produces the rendered output of a one-shot command.
type taskFunc func(ctx context.Context) (string, error)

// runTask runs fn behind a spinner and returns its output once done.
func runTask(ctx context.Context, out io.Writer, label string, fn taskFunc) (string, error) {
	p := tea.NewProgram(newTaskModel(ctx, label, fn), tea.WithOutput(out), tea.WithContext(ctx))
	m, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", label, err)
	}

	tm, ok := m.(taskModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from tea program")
	}
	if tm.err != nil {
		return "", tm.err
	}
	return tm.output, nil
}

// taskDoneMsg carries the task result back to the TUI.
type taskDoneMsg struct {
	output string
	err    error
}

type taskModel struct {
	ctx     context.Context
	label   string
	run     taskFunc
	spinner spinner.Model
	output  string
	err     error
	done    bool
}

func newTaskModel(ctx context.Context, label string, fn taskFunc) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return taskModel{
		ctx:     ctx,
		label:   label,
		run:     fn,
		spinner: s,
	}
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = context.Canceled
			return m, tea.Quit
		}
	case taskDoneMsg:
		m.output = msg.output
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View clears itself once done; the caller prints the output so that it
// stays on screen after the program exits.
func (m taskModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + styleDim.Render(" "+m.label+"...") + "\n"
}

func (m taskModel) start() tea.Cmd {
	return func() tea.Msg {
		out, err := m.run(m.ctx)
		return taskDoneMsg{output: out, err: err}
	}
}
