package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

// SetupValues holds the first-run form answers.
type SetupValues struct {
	Currency string
	Theme    string
	Backend  string
}

// NewSetupValues seeds the answers from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		Currency: cfg.General.Currency,
		Theme:    cfg.Appearance.Theme,
		Backend:  cfg.Store.Backend,
	}
}

// Apply copies the answers onto cfg.
func (v *SetupValues) Apply(cfg config.Config) config.Config {
	cfg.General.Currency = strings.TrimSpace(v.Currency)
	cfg.Appearance.Theme = v.Theme
	cfg.Store.Backend = v.Backend
	return cfg
}

// NewSetupForm builds the first-run form over v. `roomtally setup` runs it
// standalone; the dashboard embeds it on first start.
func NewSetupForm(v *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to roomtally").
				Description("Track daily room revenue.\nA few settings and you're in."),
			huh.NewInput().
				Title("Currency label").
				Description("Shown next to every amount. No conversion is done.").
				Value(&v.Currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("currency label cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Where should data be stored?").
				Options(
					huh.NewOption("SQLite file (recommended)", "sqlite"),
					huh.NewOption("Redis server", "redis"),
				).
				Value(&v.Backend),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
		),
	).WithShowHelp(false)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		saved := a.setupVals.Apply(a.cfg)
		if err := a.saveConfig(saved); err != nil {
			a.setError(err)
		} else if saved.Store.Backend != a.cfg.Store.Backend {
			a.setNotice("Saved. The new store is used from the next start.")
		}
		// This session keeps the store it was opened with.
		saved.Store.Backend = a.cfg.Store.Backend
		a.cfg = saved
		theme.SetActive(a.cfg.Appearance.Theme)
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}
