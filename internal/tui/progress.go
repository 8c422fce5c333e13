// Package tui shows the progress of a long render in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	barWidth = 40
	maxNotes = 5
)

// ProgressMsg reports completed items.
type ProgressMsg struct {
	Done  int
	Total int
}

// NoteMsg is a line of information shown under the bar, such as a failed
// item.
type NoteMsg string

// DoneMsg ends the view.
type DoneMsg struct{ Err error }

type tickMsg time.Time

// Model is the bubbletea model of a progress view.
type Model struct {
	title    string
	done     int
	total    int
	started  time.Time
	frame    int
	notes    []string
	err      error
	finished bool
	quit     bool
	cancel   func()
}

// NewModel builds a view titled title. cancel, when set, is called if the
// user quits early.
func NewModel(title string, cancel func()) Model {
	return Model{title: title, started: time.Now(), cancel: cancel}
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done, m.total = msg.Done, msg.Total
	case NoteMsg:
		m.notes = append(m.notes, string(msg))
		if len(m.notes) > maxNotes {
			m.notes = m.notes[len(m.notes)-maxNotes:]
		}
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m Model) View() string {
	var b strings.Builder

	status := Spinner(m.frame)
	switch {
	case m.err != nil:
		status = ErrorStyle.Render("✗")
	case m.finished:
		status = barHigh.Render("✓")
	}
	b.WriteString(fmt.Sprintf("%s %s\n", status, TitleStyle.Render(m.title)))

	b.WriteString(ProgressBar(m.percent(), barWidth))
	b.WriteString(fmt.Sprintf(" %s %s\n",
		ValueStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total)),
		SubtleStyle.Render(time.Since(m.started).Round(100*time.Millisecond).String()),
	))

	for _, n := range m.notes {
		b.WriteString(WarnStyle.Render("  "+n) + "\n")
	}
	if m.err != nil {
		b.WriteString(ErrorStyle.Render("error: "+m.err.Error()) + "\n")
	} else if !m.finished {
		b.WriteString(SubtleStyle.Render("q to abort") + "\n")
	}
	return b.String()
}

// Reporter forwards job events into a running program.
type Reporter struct {
	p *tea.Program
}

func (r Reporter) Progress(done, total int) { r.p.Send(ProgressMsg{Done: done, Total: total}) }

func (r Reporter) Note(format string, args ...any) {
	r.p.Send(NoteMsg(fmt.Sprintf(format, args...)))
}

// Run shows a progress view while work runs. Quitting the view cancels the
// context passed to work. The error of work is returned.
func Run(ctx context.Context, title string, work func(ctx context.Context, r Reporter) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, cancel), opts...)
	r := Reporter{p: p}

	errc := make(chan error, 1)
	go func() {
		err := work(ctx, r)
		errc <- err
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("tui: %w", err)
	}
	return <-errc
}
