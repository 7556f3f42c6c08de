package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/pipeline"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

func (a App) renderAnalyticsTab(cw, h int) string {
	t := theme.Active
	series := pipeline.GroupByMonth(a.records)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(series) == 0 {
		return components.ContentCard("Monthly revenue", muted.Render("No calculations recorded yet."), cw)
	}

	grand := pipeline.Grand(series)
	peak, _ := pipeline.Peak(series)
	values := make([]float64, len(series))
	for i, m := range series {
		values[i] = m.Total
	}

	metrics := components.MetricCardRow([]components.Metric{
		{Label: "All time", Value: cli.FormatAmount(grand, a.currency()), Note: fmt.Sprintf("%d calculations", len(a.records))},
		{Label: "Best month", Value: peak.Month, Note: cli.FormatAmount(peak.Total, a.currency())},
		{Label: "Monthly average", Value: cli.FormatAmount(grand/float64(len(series)), a.currency()), Note: components.Sparkline(values, t.MoneyBright)},
	}, cw)

	chartH := max(h-lipgloss.Height(metrics)-6, 4)
	tableW := min(max(cw/3, 30), 44)
	chartW := cw - tableW

	chart := components.ContentCard("Monthly revenue",
		components.MonthBarChart(series, components.CardInnerWidth(chartW), chartH), chartW)

	label := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	money := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)
	inner := components.CardInnerWidth(tableW)
	var b strings.Builder
	// Most recent months first; the series is in first-seen order.
	for i := len(series) - 1; i >= 0 && len(series)-i <= chartH+2; i-- {
		m := series[i]
		amount := cli.FormatCompact(m.Total)
		b.WriteString(label.Render(fmt.Sprintf("%-*s", inner-lipgloss.Width(amount), m.Month)))
		b.WriteString(money.Render(amount))
		b.WriteString("\n")
	}
	table := components.ContentCard("By month", strings.TrimRight(b.String(), "\n"), tableW)

	return metrics + "\n" + components.CardRow([]string{chart, table})
}
