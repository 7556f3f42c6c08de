package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// Tab is one entry of the tab bar. Key is the digit that jumps to it.
type Tab struct {
	Name string
	Key  string
}

// Tabs defines all dashboard tabs, in display order.
var Tabs = []Tab{
	{Name: "Rooms", Key: "1"},
	{Name: "Calculator", Key: "2"},
	{Name: "History", Key: "3"},
	{Name: "Analytics", Key: "4"},
	{Name: "Settings", Key: "5"},
}

func renderTab(tab Tab, active bool) string {
	t := theme.Active
	if active {
		return lipgloss.NewStyle().
			Foreground(t.AccentBright).
			Background(t.SurfaceHover).
			Bold(true).
			Padding(0, 1).
			Render(tab.Key + " " + tab.Name)
	}
	key := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(tab.Key + " ")
	name := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(tab.Name)
	pad := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return pad + key + name + pad
}

// TabVisualWidth is the rendered width of tab, used for mouse hitboxes.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the single-line tab bar padded to width.
func RenderTabBar(activeIdx, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	bar := strings.Join(parts, sep)

	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab index for a key press, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
