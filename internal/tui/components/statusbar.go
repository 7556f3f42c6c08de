package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// RenderStatusBar renders the bottom bar: key hints on the left, an
// optional notice in the middle and store info on the right.
func RenderStatusBar(width int, hints, notice string, noticeIsErr bool, right string) string {
	t := theme.Active
	bg := lipgloss.NewStyle().Background(t.Surface)

	left := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(" " + hints)
	if notice != "" {
		color := t.MoneyBright
		if noticeIsErr {
			color = t.Danger
		}
		left += bg.Render("  ") + lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(notice)
	}
	rightR := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(right + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(rightR)
	if gap < 1 {
		return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).Render(left)
	}
	return left + bg.Render(spaces(gap)) + rightR
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
