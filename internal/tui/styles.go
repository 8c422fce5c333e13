package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688"))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaa00"))

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func Spinner(frame int) string {
	return spinner[frame%len(spinner)]
}

// ProgressBar renders percent in [0, 1] as a bar of width cells.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(width, filled))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return barHigh.Render(bar)
	case percent > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// Field is one label/value pair of a summary line.
type Field struct {
	Label string
	Value string
}

// Summary renders fields on one line, e.g. "made with width 1280 height 720".
func Summary(title string, fields ...Field) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(title))
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(LabelStyle.Render(f.Label))
		sb.WriteByte(' ')
		sb.WriteString(ValueStyle.Render(f.Value))
	}
	return sb.String()
}
