package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

const (
	settingsFieldCurrency = iota
	settingsFieldTheme
	settingsFieldDaemonAddr
	settingsFieldCount // sentinel
)

var settingsLabels = [settingsFieldCount]string{"Currency", "Theme", "Daemon address"}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (a App) settingValue(field int) string {
	switch field {
	case settingsFieldCurrency:
		return a.cfg.General.Currency
	case settingsFieldTheme:
		return a.cfg.Appearance.Theme
	case settingsFieldDaemonAddr:
		return a.cfg.Daemon.Addr
	}
	return ""
}

func (a App) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ss := &a.settings
	key := msg.String()

	if ss.editing {
		switch key {
		case "enter":
			ss.editing = false
			ss.saveErr = a.settingsSave(strings.TrimSpace(ss.input.Value()))
			ss.saved = ss.saveErr == nil
			return a, nil
		case "esc":
			ss.editing = false
			return a, nil
		}
		var cmd tea.Cmd
		ss.input, cmd = ss.input.Update(msg)
		return a, cmd
	}

	switch key {
	case "j", "down":
		if ss.cursor < settingsFieldCount-1 {
			ss.cursor++
		}
	case "k", "up":
		if ss.cursor > 0 {
			ss.cursor--
		}
	case "enter", "e":
		ss.editing = true
		ss.saved = false
		ti := textinput.New()
		ti.CharLimit = 64
		ti.Width = 40
		if ss.cursor == settingsFieldTheme {
			ti.Placeholder = strings.Join(theme.Names(), ", ")
		}
		ti.SetValue(a.settingValue(ss.cursor))
		ti.CursorEnd()
		ti.Focus()
		ss.input = ti
		return a, textinput.Blink
	}
	return a, nil
}

// settingsSave applies val to the selected field and writes the config.
func (a *App) settingsSave(val string) error {
	cfg := a.cfg
	switch a.settings.cursor {
	case settingsFieldCurrency:
		cfg.General.Currency = val
	case settingsFieldTheme:
		if _, ok := theme.Lookup(val); !ok {
			return fmt.Errorf("unknown theme %q", val)
		}
		cfg.Appearance.Theme = val
	case settingsFieldDaemonAddr:
		cfg.Daemon.Addr = val
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := a.saveConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	ss := a.settings
	inner := components.CardInnerWidth(cw)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedLabel := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	selectedValue := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	space := lipgloss.NewStyle().Background(t.Surface)

	var form strings.Builder
	for i := 0; i < settingsFieldCount; i++ {
		name := fmt.Sprintf("%-16s ", settingsLabels[i]+":")
		switch {
		case ss.editing && i == ss.cursor:
			form.WriteString(marker.Render("▸ ") + selectedLabel.Render(name) + ss.input.View())
		case i == ss.cursor:
			line := marker.Render("▸ ") + selectedLabel.Render(name) + selectedValue.Render(a.settingValue(i))
			if pad := inner - lipgloss.Width(line); pad > 0 {
				line += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
			}
			form.WriteString(line)
		default:
			form.WriteString(space.Render("  ") + label.Render(name) + value.Render(a.settingValue(i)))
		}
		form.WriteString("\n")
	}

	if ss.saveErr != nil {
		form.WriteString("\n" + lipgloss.NewStyle().Foreground(t.Danger).Background(t.Surface).Render("Save failed: "+ss.saveErr.Error()))
	} else if ss.saved {
		form.WriteString("\n" + lipgloss.NewStyle().Foreground(t.MoneyBright).Background(t.Surface).Render("Saved!"))
	}
	form.WriteString("\n" + label.Render("[j/k] navigate  [enter] edit  [esc] cancel"))

	storeLoc := a.cfg.DBPath()
	switch a.cfg.Store.Backend {
	case "redis":
		storeLoc = fmt.Sprintf("%s db %d", a.cfg.Store.RedisAddr, a.cfg.Store.RedisDB)
	case "memory":
		storeLoc = "in-process, not persisted"
	}
	var info strings.Builder
	info.WriteString(label.Render("Store backend:  ") + value.Render(a.cfg.Store.Backend) + "\n")
	info.WriteString(label.Render("Store location: ") + value.Render(storeLoc) + "\n")
	info.WriteString(label.Render("Rooms:          ") + value.Render(fmt.Sprint(len(a.rooms))) + "\n")
	info.WriteString(label.Render("Calculations:   ") + value.Render(fmt.Sprint(len(a.records))) + "\n")
	info.WriteString(label.Render("Config file:    ") + value.Render(config.Path()))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("Storage", info.String(), cw)
}
