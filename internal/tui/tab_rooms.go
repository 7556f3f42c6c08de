package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// roomsState holds the rooms tab state.
type roomsState struct {
	cursor        int
	adding        bool
	input         textinput.Model
	confirmRemove bool
}

func newRoomInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Room name"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()
	return ti
}

func (a App) updateRooms(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rs := &a.roomsTab
	key := msg.String()

	if rs.adding {
		switch key {
		case "enter":
			name := rs.input.Value()
			rs.adding = false
			if strings.TrimSpace(name) == "" {
				return a, nil
			}
			return a, a.loadCmd(fmt.Sprintf("Added %q", name), false, func(ctx context.Context) error {
				_, err := a.repo.AddRoom(ctx, name)
				return err
			})
		case "esc":
			rs.adding = false
			return a, nil
		}
		var cmd tea.Cmd
		rs.input, cmd = rs.input.Update(msg)
		return a, cmd
	}

	if rs.confirmRemove {
		rs.confirmRemove = false
		if key != "y" || rs.cursor >= len(a.rooms) {
			return a, nil
		}
		name := a.rooms[rs.cursor]
		// The cascade also prunes the persisted amount, so the session is
		// reloaded with the rooms.
		return a, a.loadCmd(fmt.Sprintf("Removed %q", name), true, func(ctx context.Context) error {
			_, err := a.repo.RemoveRoomAndBudget(ctx, name)
			return err
		})
	}

	switch key {
	case "a", "n":
		rs.adding = true
		rs.input = newRoomInput()
		return a, textinput.Blink
	case "d", "delete", "x":
		if len(a.rooms) > 0 {
			rs.confirmRemove = true
		}
	case "j", "down":
		if rs.cursor < len(a.rooms)-1 {
			rs.cursor++
		}
	case "k", "up":
		if rs.cursor > 0 {
			rs.cursor--
		}
	case "g":
		rs.cursor = 0
	case "G":
		rs.cursor = max(len(a.rooms)-1, 0)
	}
	return a, nil
}

func (a App) renderRoomsTab(cw int) string {
	t := theme.Active
	rs := a.roomsTab
	inner := components.CardInnerWidth(cw)

	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selected := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true).Width(inner)
	money := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).Bold(true)

	var b strings.Builder
	if len(a.rooms) == 0 {
		b.WriteString(muted.Render("No rooms yet. Press [a] to add one."))
	}
	nameW := max(inner-24, 10)
	for i, name := range a.rooms {
		amount := ""
		if a.session != nil {
			if text := a.session.Amount(name); text != "" {
				amount = cli.FormatAmount(ledger.ParseAmount(text), a.currency())
			}
		}
		line := fmt.Sprintf("%-*s %20s", nameW, truncStr(name, nameW), amount)
		if i == rs.cursor {
			b.WriteString(selected.Render("▸ " + line))
		} else {
			b.WriteString(row.Render("  "+fmt.Sprintf("%-*s ", nameW, truncStr(name, nameW))) + money.Render(fmt.Sprintf("%20s", amount)))
		}
		b.WriteString("\n")
	}

	switch {
	case rs.adding:
		b.WriteString("\n" + muted.Render("New room: ") + rs.input.View())
	case rs.confirmRemove && rs.cursor < len(a.rooms):
		b.WriteString("\n" + warn.Render(fmt.Sprintf("Remove %q and its amount? [y/n]", a.rooms[rs.cursor])))
	default:
		b.WriteString("\n" + muted.Render("[a] add  [d] remove  [j/k] move"))
	}

	title := fmt.Sprintf("Rooms (%d)", len(a.rooms))
	if rs.adding || rs.confirmRemove {
		return components.FocusedCard(title, b.String(), cw)
	}
	return components.ContentCard(title, b.String(), cw)
}
