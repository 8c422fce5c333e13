package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelProgress(t *testing.T) {
	m := NewModel("rendering", nil)
	m, _ = update(m, ProgressMsg{Done: 3, Total: 12})

	if m.percent() != 0.25 {
		t.Errorf("expected 25%%, got %v", m.percent())
	}
	view := m.View()
	if !strings.Contains(view, "3/12") {
		t.Errorf("view missing counts:\n%s", view)
	}
	if !strings.Contains(view, "rendering") {
		t.Errorf("view missing title:\n%s", view)
	}
}

func TestModelNotesAreBounded(t *testing.T) {
	m := NewModel("x", nil)
	for i := 0; i < maxNotes+3; i++ {
		m, _ = update(m, NoteMsg(strings.Repeat("n", i+1)))
	}
	if len(m.notes) != maxNotes {
		t.Errorf("expected %d notes, got %d", maxNotes, len(m.notes))
	}
	if m.notes[maxNotes-1] != strings.Repeat("n", maxNotes+3) {
		t.Error("latest note should be kept")
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel("x", nil)
	m, cmd := update(m, DoneMsg{Err: errors.New("encoder died")})

	if !m.finished {
		t.Error("model should be finished")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "encoder died") {
		t.Errorf("view missing error:\n%s", m.View())
	}
}

func TestModelQuitCancels(t *testing.T) {
	cancelled := false
	m := NewModel("x", func() { cancelled = true })

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("quitting should cancel the work")
	}
	if !m.quit || cmd == nil {
		t.Error("expected quit")
	}
}

func TestModelZeroTotal(t *testing.T) {
	m := NewModel("x", nil)
	if m.percent() != 0 {
		t.Errorf("expected 0, got %v", m.percent())
	}
	_ = m.View()
}

func TestProgressBarClamps(t *testing.T) {
	for _, p := range []float64{-1, 0, 0.5, 1, 2} {
		bar := ProgressBar(p, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("percent %v: %d cells, want 10", p, n)
		}
	}
}

func TestSummary(t *testing.T) {
	s := Summary("made with", Field{"width", "1280"}, Field{"colour", "BW"})
	for _, want := range []string{"made with", "width", "1280", "colour", "BW"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary %q missing %q", s, want)
		}
	}
}
