package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/pipeline"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// historyState holds the history tab state.
type historyState struct {
	month         string // "January 2006"
	cursor        int
	offset        int
	confirmRemove bool

	form    *huh.Form
	editing model.CalculationRecord
	vals    *historyEditValues
}

// historyEditValues backs the edit form. It lives behind a pointer so the
// form keeps writing to the same values as App is copied.
type historyEditValues struct {
	total string
	date  string
}

func monthOf(t time.Time) string {
	return pipeline.MonthLabel(t)
}

// monthRecords is the selected month's records in date order.
func (a App) monthRecords() []model.CalculationRecord {
	return pipeline.FilterByMonth(a.sorted, a.hist.month)
}

func (a App) selectedRecord() (model.CalculationRecord, bool) {
	recs := a.monthRecords()
	if a.hist.cursor < 0 || a.hist.cursor >= len(recs) {
		return model.CalculationRecord{}, false
	}
	return recs[a.hist.cursor], true
}

func (a App) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	hs := &a.hist
	key := msg.String()

	if hs.form != nil {
		return a.updateHistoryForm(msg)
	}

	if hs.confirmRemove {
		hs.confirmRemove = false
		rec, ok := a.selectedRecord()
		if key != "y" || !ok {
			return a, nil
		}
		return a, a.loadCmd("Deleted "+pipeline.FormatDisplayDate(rec.Date), false, a.removeOp(rec))
	}

	recs := a.monthRecords()
	switch key {
	case "[", "h":
		a.shiftMonth(pipeline.Prev)
	case "]", "l":
		a.shiftMonth(pipeline.Next)
	case "j", "down":
		if hs.cursor < len(recs)-1 {
			hs.cursor++
		}
	case "k", "up":
		if hs.cursor > 0 {
			hs.cursor--
		}
	case "d", "delete", "x":
		if len(recs) > 0 {
			hs.confirmRemove = true
		}
	case "e", "enter":
		rec, ok := a.selectedRecord()
		if !ok {
			return a, nil
		}
		hs.editing = rec
		hs.vals = &historyEditValues{
			total: strconv.FormatFloat(rec.Total, 'f', -1, 64),
			date:  rec.Date,
		}
		hs.form = newHistoryEditForm(hs.vals).WithWidth(min(max(a.width, 40), 60))
		return a, hs.form.Init()
	}
	return a, nil
}

func (a *App) shiftMonth(delta int) {
	next, err := pipeline.ShiftMonth(a.hist.month, delta)
	if err != nil {
		a.setError(err)
		return
	}
	a.hist.month = next
	a.hist.cursor = 0
	a.hist.offset = 0
}

// removeOp deletes rec by id. Records written before ids existed fall back
// to the first (date, total) match.
func (a App) removeOp(rec model.CalculationRecord) func(ctx context.Context) error {
	repo := a.repo
	return func(ctx context.Context) error {
		if rec.ID != "" {
			return repo.RemoveByID(ctx, rec.ID)
		}
		_, err := repo.Remove(ctx, rec.Date, rec.Total)
		return err
	}
}

func newHistoryEditForm(v *historyEditValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Total").
				Value(&v.total).
				Validate(func(s string) error {
					total, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil {
						return ledger.ErrInvalidTotal
					}
					return ledger.ValidateEdit(total, "-")
				}),
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&v.date).
				Validate(func(s string) error {
					if err := ledger.ValidateEdit(1, s); err != nil {
						return err
					}
					if _, err := time.Parse(model.DateLayout, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("date must look like 2025-01-31")
					}
					return nil
				}),
		).Title("Edit calculation"),
	).WithShowHelp(false)
}

func (a App) updateHistoryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	hs := &a.hist
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		hs.form = nil
		return a, nil
	}

	form, cmd := hs.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		hs.form = f
	}

	switch hs.form.State {
	case huh.StateCompleted:
		hs.form = nil
		return a, a.saveHistoryEdit(hs.editing, *hs.vals)
	case huh.StateAborted:
		hs.form = nil
		return a, nil
	}
	return a, cmd
}

// saveHistoryEdit replaces rec with the edited values. Records without an
// id are addressed by their position in the date-sorted list.
func (a App) saveHistoryEdit(rec model.CalculationRecord, v historyEditValues) tea.Cmd {
	total, err := strconv.ParseFloat(strings.TrimSpace(v.total), 64)
	if err != nil {
		total = 0
	}
	date := strings.TrimSpace(v.date)
	if err := ledger.ValidateEdit(total, date); err != nil {
		return func() tea.Msg { return loadedMsg{err: err} }
	}

	index := -1
	for i, r := range a.sorted {
		if r == rec {
			index = i
			break
		}
	}
	repo := a.repo
	return a.loadCmd("Saved "+pipeline.FormatDisplayDate(date), false, func(ctx context.Context) error {
		if rec.ID != "" {
			_, err := repo.UpdateByID(ctx, rec.ID, total, date)
			return err
		}
		_, err := repo.UpdateAt(ctx, index, total, date)
		return err
	})
}

func (a App) renderHistoryTab(cw, h int) string {
	t := theme.Active
	hs := a.hist
	recs := a.monthRecords()
	total := pipeline.SumTotals(recs)

	prevTotal := 0.0
	if prev, err := pipeline.ShiftMonth(hs.month, pipeline.Prev); err == nil {
		prevTotal = pipeline.SumTotals(pipeline.FilterByMonth(a.sorted, prev))
	}
	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Month", Value: hs.month, Note: "[ ] change month"},
		{Label: "Month total", Value: cli.FormatAmount(total, a.currency()), Note: "vs last month " + cli.FormatDelta(total, prevTotal, a.currency())},
		{Label: "Days recorded", Value: strconv.Itoa(len(recs))},
	}, cw)

	if hs.form != nil {
		return metrics + "\n" + components.FocusedCard("", hs.form.View(), cw)
	}

	inner := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true).Width(inner)
	money := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).Bold(true)

	visible := max(h-lipgloss.Height(metrics)-6, 3)
	offset := hs.offset
	if hs.cursor < offset {
		offset = hs.cursor
	}
	if hs.cursor >= offset+visible {
		offset = hs.cursor - visible + 1
	}

	var b strings.Builder
	if len(recs) == 0 {
		b.WriteString(muted.Render("No calculations this month."))
		b.WriteString("\n")
	}
	dateW := max(inner-24, 18)
	for i := offset; i < len(recs) && i < offset+visible; i++ {
		r := recs[i]
		date := pipeline.FormatDisplayDate(r.Date)
		amount := cli.FormatAmount(r.Total, a.currency())
		if i == hs.cursor {
			b.WriteString(selected.Render(fmt.Sprintf("▸ %-*s %20s", dateW, date, amount)))
		} else {
			b.WriteString(row.Render(fmt.Sprintf("  %-*s ", dateW, date)) + money.Render(fmt.Sprintf("%20s", amount)))
		}
		b.WriteString("\n")
	}

	if hs.confirmRemove {
		if rec, ok := a.selectedRecord(); ok {
			b.WriteString("\n" + warn.Render(fmt.Sprintf("Delete %s (%s)? [y/n]",
				pipeline.FormatDisplayDate(rec.Date), cli.FormatAmount(rec.Total, a.currency()))))
		}
	} else {
		b.WriteString("\n" + muted.Render("[e] edit  [d] delete  [j/k] move"))
	}

	return metrics + "\n" + components.ContentCard("Calculations", b.String(), cw)
}
