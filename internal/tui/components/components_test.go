package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	widths := LayoutRow(101, 4)
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 101 {
		t.Fatalf("LayoutRow sum = %d, want 101", sum)
	}
	if widths[0] != 26 || widths[3] != 25 {
		t.Fatalf("remainder should go to the first items: %v", widths)
	}
}

func TestCardRowPadsShortCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)
	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no background styling: %q", i, lines[i])
		}
		if w := lipgloss.Width(lines[i]); w != 44 {
			t.Errorf("line %d width = %d, want 44", i, w)
		}
	}
}

func TestTabBarHitboxesCoverTabs(t *testing.T) {
	bar := RenderTabBar(1, 120)
	if w := lipgloss.Width(bar); w != 120 {
		t.Fatalf("tab bar width = %d, want 120", w)
	}
	sum := len(Tabs) - 1 // separators
	for i, tab := range Tabs {
		sum += TabVisualWidth(tab, i == 1)
	}
	// the last tab's trailing pad is trimmed with the fill
	plain := strings.TrimRight(stripANSI(bar), " ")
	if lipgloss.Width(plain) != sum-1 {
		t.Fatalf("rendered tabs width = %d, want %d", lipgloss.Width(plain), sum-1)
	}
	if TabIdxByKey("3") != 2 || TabIdxByKey("9") != -1 {
		t.Fatal("TabIdxByKey mismatch")
	}
}

func TestMonthBarChartShowsRecentMonthsWhenNarrow(t *testing.T) {
	series := make([]model.MonthTotal, 24)
	for i := range series {
		series[i] = model.MonthTotal{Month: "Jan 2024", Total: float64(i + 1)}
	}
	series[23] = model.MonthTotal{Month: "Dec 2025", Total: 100}

	out := MonthBarChart(series, 30, 8)
	lines := strings.Split(out, "\n")
	// 6 bar rows, the axis and the labels
	if len(lines) != 8 {
		t.Fatalf("chart lines = %d, want 8:\n%s", len(lines), stripANSI(out))
	}
	if !strings.HasPrefix(stripANSI(lines[0]), " 120│") {
		t.Fatalf("top tick should sit above the peak: %q", stripANSI(lines[0]))
	}
	if !strings.Contains(stripANSI(lines[len(lines)-1]), "Dec") {
		t.Fatalf("latest month should be labelled: %q", stripANSI(lines[len(lines)-1]))
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w > 30 {
			t.Fatalf("line wider than chart: %d", w)
		}
	}
}

func TestShareBarClampsShare(t *testing.T) {
	out := stripANSI(ShareBar("Room 101", 1.7, 10, 10))
	if !strings.HasSuffix(out, "100%") {
		t.Fatalf("ShareBar should clamp to 100%%: %q", out)
	}
	if !strings.HasPrefix(out, "Room 101") {
		t.Fatalf("ShareBar label missing: %q", out)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && ((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
