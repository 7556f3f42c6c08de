package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a one-line trend of values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// MonthBarChart renders the monthly revenue series as vertical bars with a
// money Y axis. When the series is wider than the chart, the most recent
// months that fit are shown.
func MonthBarChart(series []model.MonthTotal, width, height int) string {
	if len(series) == 0 {
		return ""
	}
	t := theme.Active
	values := make([]float64, len(series))
	for i, m := range series {
		values[i] = m.Total
	}
	if width < 15 || height < 3 {
		return Sparkline(values, t.Money)
	}

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	step := chartTickStep(peak)
	for math.Ceil(peak/step) > float64(max(height/2, 2)) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	intervals := max(int(math.Round(ceiling/step)), 1)
	rowsPerTick := max(height/intervals, 2)
	chartH := rowsPerTick * intervals

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	chartW := max(width-yLabelW-1, 5)

	// Bars are as wide as fits, between 2 and 7 columns, one column apart.
	barW := min((chartW+1)/len(series)-1, 7)
	if barW < 2 {
		barW = 2
		keep := max((chartW+1)/(barW+1), 1)
		series = series[len(series)-keep:]
		values = values[len(values)-keep:]
	}
	n := len(series)
	axisLen := n*(barW+1) - 1

	surface := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	fracBlocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		color := t.Money
		if float64(row)/float64(chartH) > 0.7 {
			color = t.MoneyBright
		}
		bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

		label := ""
		if row%rowsPerTick == 0 {
			label = formatChartLabel(step * float64(row/rowsPerTick))
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteString(surface.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := max(1, min(int((v-bottom)/(top-bottom)*8), 8))
				b.WriteString(bar.Render(strings.Repeat(string(fracBlocks[idx]), barW)))
			default:
				b.WriteString(surface.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))
	b.WriteString("\n")

	// Month labels, placed right to left so the latest month always shows.
	// The year is appended where it changes if the bars are wide enough.
	labels := []rune(strings.Repeat(" ", axisLen+2))
	nextStart := len(labels) + 1
	for i := n - 1; i >= 0; i-- {
		mon, year, _ := strings.Cut(series[i].Month, " ")
		lbl := []rune(mon)
		if barW >= 5 && (i == 0 || !strings.HasSuffix(series[i-1].Month, year)) {
			lbl = []rune(mon + "'" + lastTwo(year))
		}
		pos := min(i*(barW+1), len(labels)-len(lbl))
		if pos < 0 || pos+len(lbl) >= nextStart {
			continue
		}
		copy(labels[pos:], lbl)
		nextStart = pos
	}
	b.WriteString(surface.Render(strings.Repeat(" ", yLabelW+1)))
	b.WriteString(axis.Render(strings.TrimRight(string(labels), " ")))

	return b.String()
}

func lastTwo(s string) string {
	if len(s) <= 2 {
		return s
	}
	return s[len(s)-2:]
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return trimZero(fmt.Sprintf("%.1f", v/1e6)) + "M"
	case v >= 1e3:
		return trimZero(fmt.Sprintf("%.1f", v/1e3)) + "k"
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
