package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/pipeline"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// calcState holds the calculator tab state.
type calcState struct {
	cursor       int
	date         time.Time
	editing      bool
	room         string // room whose amount is being typed
	input        textinput.Model
	confirmClear bool
	last         *model.CalculationRecord
}

func newCalcState(now time.Time) calcState {
	return calcState{date: dayOf(now)}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func newAmountInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "0.00"
	ti.CharLimit = 32
	ti.Width = 16
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return ti
}

func (a App) updateCalculator(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cs := &a.calc
	key := msg.String()

	if cs.editing {
		switch key {
		case "enter", "esc", "tab", "up", "down":
			// Leaving the field persists the whole mapping.
			cs.editing = false
			a.persistBudgets()
			switch key {
			case "enter", "tab", "down":
				if cs.cursor < len(a.rooms)-1 {
					cs.cursor++
				}
			case "up":
				if cs.cursor > 0 {
					cs.cursor--
				}
			}
			return a, nil
		}
		var cmd tea.Cmd
		cs.input, cmd = cs.input.Update(msg)
		// Every keystroke updates the in-memory amount.
		a.session.SetAmount(cs.room, cs.input.Value())
		return a, cmd
	}

	if cs.confirmClear {
		cs.confirmClear = false
		if key != "y" {
			return a, nil
		}
		if err := a.session.ClearAll(context.Background()); err != nil {
			a.setError(err)
			return a, nil
		}
		a.setNotice("Cleared all amounts")
		return a, nil
	}

	switch key {
	case "enter", "e":
		if a.session == nil || cs.cursor >= len(a.rooms) {
			return a, nil
		}
		cs.editing = true
		cs.room = a.rooms[cs.cursor]
		cs.input = newAmountInput(a.session.Amount(cs.room))
		return a, textinput.Blink
	case "j", "down":
		if cs.cursor < len(a.rooms)-1 {
			cs.cursor++
		}
	case "k", "up":
		if cs.cursor > 0 {
			cs.cursor--
		}
	case "[":
		cs.date = cs.date.AddDate(0, 0, -1)
	case "]":
		cs.date = cs.date.AddDate(0, 0, 1)
	case "t":
		cs.date = dayOf(a.now())
	case "c":
		return a.calculate()
	case "X":
		if a.session != nil {
			cs.confirmClear = true
		}
	}
	return a, nil
}

func (a *App) persistBudgets() {
	if a.session == nil {
		return
	}
	if err := a.session.Persist(context.Background()); err != nil {
		a.setError(err)
	}
}

// calculate records the session total for the selected date. The session
// is written synchronously since the view keeps mutating it.
func (a App) calculate() (tea.Model, tea.Cmd) {
	if a.session == nil {
		return a, nil
	}
	rec, err := a.repo.CalculateAndRecord(context.Background(), a.session, a.calc.date)
	if err != nil {
		a.setError(err)
		return a, nil
	}
	a.calc.last = &rec
	notice := fmt.Sprintf("Recorded %s for %s", cli.FormatAmount(rec.Total, a.currency()), pipeline.FormatDisplayDate(rec.Date))
	return a, a.loadCmd(notice, false, nil)
}

func (a App) renderCalculatorTab(cw int) string {
	t := theme.Active
	cs := a.calc

	total := 0.0
	entered := 0
	if a.session != nil {
		total = a.session.Total()
		for _, e := range a.session.Entries() {
			if e.Amount != "" {
				entered++
			}
		}
	}

	lastNote := "nothing recorded this session"
	if cs.last != nil {
		lastNote = fmt.Sprintf("last: %s on %s", cli.FormatAmount(cs.last.Total, a.currency()), cs.last.Date)
	}
	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Date", Value: cs.date.Format(pipeline.DisplayLayout), Note: "[ ] change  [t] today"},
		{Label: "Daily total", Value: cli.FormatAmount(total, a.currency()), Note: lastNote},
		{Label: "Rooms entered", Value: fmt.Sprintf("%d / %d", entered, len(a.rooms))},
	}, cw)

	inner := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	label := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	money := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface)

	nameW := min(max(inner/4, 12), 28)
	amountW := 18
	barW := max(inner-nameW-amountW-12, 10)

	var b strings.Builder
	if len(a.rooms) == 0 {
		b.WriteString(muted.Render("Add rooms on the Rooms tab [1] first."))
	}
	for i, room := range a.rooms {
		if i == cs.cursor {
			b.WriteString(marker.Render("▸ "))
		} else {
			b.WriteString(space.Render("  "))
		}
		b.WriteString(label.Render(fmt.Sprintf("%-*s ", nameW, truncStr(room, nameW))))

		text := ""
		if a.session != nil {
			text = a.session.Amount(room)
		}
		if cs.editing && i == cs.cursor {
			b.WriteString(cs.input.View())
			b.WriteString("\n")
			continue
		}
		value := ledger.ParseAmount(text)
		shown := muted.Render(fmt.Sprintf("%*s", amountW, "-"))
		if text != "" {
			shown = money.Render(fmt.Sprintf("%*s", amountW, cli.FormatMoney(value)))
		}
		b.WriteString(shown + space.Render("  "))

		share := 0.0
		if total > 0 {
			share = value / total
		}
		b.WriteString(components.ShareBar("", share, 0, barW))
		b.WriteString("\n")
	}

	switch {
	case cs.confirmClear:
		b.WriteString("\n" + warn.Render("Clear every amount? [y/n]"))
	case cs.editing:
		b.WriteString("\n" + muted.Render("[enter] next  [esc] done"))
	default:
		b.WriteString("\n" + muted.Render("[enter] edit  [c] calculate  [X] clear all"))
	}

	card := components.ContentCard("Amounts", b.String(), cw)
	if cs.editing || cs.confirmClear {
		card = components.FocusedCard("Amounts", b.String(), cw)
	}
	return metrics + "\n" + card
}
