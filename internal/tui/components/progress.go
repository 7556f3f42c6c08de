package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// ColorForShare picks a bar colour for a room's share of the day's total.
func ColorForShare(share float64) string {
	t := theme.Active
	switch {
	case share >= 0.5:
		return string(t.MoneyBright)
	case share >= 0.2:
		return string(t.Money)
	case share > 0:
		return string(t.Accent)
	default:
		return string(t.TextDim)
	}
}

// ShareBar renders a labelled bar showing share (0-1) of the total,
// followed by the percentage.
func ShareBar(label string, share float64, labelW, barWidth int) string {
	t := theme.Active
	share = max(0, min(share, 1))

	bar := progress.New(
		progress.WithSolidFill(ColorForShare(share)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.SurfaceBright)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorForShare(share))).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		space +
		bar.ViewAs(share) +
		space +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", share*100))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 {
		return ""
	}
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
