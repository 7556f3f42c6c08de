// Package tui provides the interactive Bubble Tea dashboard for roomtally.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

const (
	tabRooms = iota
	tabCalculator
	tabHistory
	tabAnalytics
	tabSettings
)

const (
	minTerminalWidth = 70
	maxContentWidth  = 140
	minContentHeight = 5
)

// loadedMsg carries a fresh read of the ledger.
type loadedMsg struct {
	rooms   []string
	records []model.CalculationRecord // stored order
	session *ledger.BudgetSession     // nil keeps the current session
	notice  string
	err     error
}

// App is the root Bubble Tea model.
type App struct {
	repo       *ledger.Repository
	cfg        config.Config
	now        func() time.Time
	saveConfig func(config.Config) error

	// Data
	loaded  bool
	rooms   []string
	records []model.CalculationRecord // stored order
	sorted  []model.CalculationRecord // by date, for display
	session *ledger.BudgetSession

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string
	noticeErr bool
	spinner   spinner.Model

	// Per-tab state
	roomsTab roomsState
	calc     calcState
	hist     historyState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool
}

// NewApp creates the dashboard over repo. firstRun shows the setup form
// once data has loaded.
func NewApp(repo *ledger.Repository, cfg config.Config, firstRun bool) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	now := time.Now
	return App{
		repo:       repo,
		cfg:        cfg,
		now:        now,
		saveConfig: config.Save,
		needSetup:  firstRun,
		spinner:    sp,
		calc:       newCalcState(now()),
		hist:       historyState{month: monthOf(now())},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.loadCmd("", true, nil),
		a.spinner.Tick,
	)
}

// loadCmd runs op, if any, then reads rooms and history back. withSession
// also replaces the budget session with the persisted one.
func (a App) loadCmd(notice string, withSession bool, op func(ctx context.Context) error) tea.Cmd {
	repo := a.repo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if op != nil {
			if err := op(ctx); err != nil {
				return loadedMsg{err: err}
			}
		}
		rooms, err := repo.ListRooms(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		records, err := repo.Records(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		msg := loadedMsg{rooms: rooms, records: records, notice: notice}
		if withSession {
			if msg.session, err = repo.LoadBudgets(ctx); err != nil {
				return loadedMsg{err: err}
			}
		}
		return msg
	}
}

func (a *App) apply(msg loadedMsg) {
	if msg.err != nil {
		a.setError(msg.err)
		return
	}
	a.rooms = msg.rooms
	a.records = msg.records
	a.sorted = append([]model.CalculationRecord(nil), msg.records...)
	ledger.SortByDate(a.sorted)
	if msg.session != nil {
		a.session = msg.session
	}
	if msg.notice != "" {
		a.setNotice(msg.notice)
	}
	a.clampCursors()
}

func (a *App) clampCursors() {
	a.roomsTab.cursor = clamp(a.roomsTab.cursor, len(a.rooms))
	a.calc.cursor = clamp(a.calc.cursor, len(a.rooms))
	a.hist.cursor = clamp(a.hist.cursor, len(a.monthRecords()))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	return max(i, 0)
}

func (a *App) setNotice(s string) {
	a.notice, a.noticeErr = s, false
}

func (a *App) setError(err error) {
	a.notice, a.noticeErr = err.Error(), true
}

func (a App) currency() string {
	return a.cfg.General.Currency
}

// editing reports whether a tab owns the keyboard.
func (a App) editing() bool {
	return a.roomsTab.adding || a.roomsTab.confirmRemove ||
		a.calc.editing || a.calc.confirmClear ||
		a.hist.form != nil || a.hist.confirmRemove ||
		a.settings.editing
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.hist.form != nil {
			a.hist.form = a.hist.form.WithWidth(min(msg.Width, 60))
		}
		return a, nil

	case loadedMsg:
		first := !a.loaded
		a.loaded = true
		a.apply(msg)
		if first && a.needSetup {
			a.setupVals = NewSetupValues(a.cfg)
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.editing() {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.editing() {
			return a.updateActiveTab(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "tab", "right":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		case "shift+tab", "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "ctrl+r":
			return a, a.loadCmd("Reloaded", true, nil)
		}
		if idx := components.TabIdxByKey(key); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
		a.notice = ""
		return a.updateActiveTab(msg)
	}

	// Forward everything else (cursor blinks, form internals) to open forms.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.hist.form != nil {
		return a.updateHistoryForm(msg)
	}
	return a, nil
}

func (a App) updateActiveTab(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.activeTab {
	case tabRooms:
		return a.updateRooms(msg)
	case tabCalculator:
		return a.updateCalculator(msg)
	case tabHistory:
		return a.updateHistory(msg)
	case tabSettings:
		return a.updateSettings(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	case tea.MouseButtonWheelUp:
		return a.updateActiveTab(tea.KeyMsg{Type: tea.KeyUp})
	case tea.MouseButtonWheelDown:
		return a.updateActiveTab(tea.KeyMsg{Type: tea.KeyDown})
	}
	return a, nil
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  roomtally needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 4).
		Render(
			lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render("◈ roomtally") +
				lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(" · daily room revenue") +
				"\n\n" + a.spinner.View() +
				lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(" Loading ledger..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Highlight).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	groups := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"1-5", "Jump to tab"},
			{"tab ← →", "Next / previous tab"},
			{"j k", "Move in lists"},
		}},
		{"Rooms", [][2]string{{"a", "Add room"}, {"d", "Remove room and its amount"}}},
		{"Calculator", [][2]string{
			{"enter", "Edit amount"},
			{"[ ] t", "Previous / next day / today"},
			{"c", "Calculate and record total"},
			{"X", "Clear all amounts"},
		}},
		{"History", [][2]string{{"[ ]", "Previous / next month"}, {"e", "Edit record"}, {"d", "Delete record"}}},
		{"General", [][2]string{{"ctrl+r", "Reload"}, {"?", "Toggle help"}, {"q", "Quit"}}},
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render("◈ Keyboard Shortcuts"))
	for _, g := range groups {
		b.WriteString("\n\n" + section.Render(g.title))
		for _, kb := range g.bindings {
			fmt.Fprintf(&b, "\n  %s  %s", keyStyle.Render(fmt.Sprintf("%-8s", kb[0])), desc.Render(kb[1]))
		}
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w, h, cw := a.width, a.height, a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.hints(), a.notice, a.noticeErr,
		fmt.Sprintf("%s · %d rooms · %d records", a.cfg.Store.Backend, len(a.rooms), len(a.records)))

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabRooms:
		content = a.renderRoomsTab(cw)
	case tabCalculator:
		content = a.renderCalculatorTab(cw)
	case tabHistory:
		content = a.renderHistoryTab(cw, contentH)
	case tabAnalytics:
		content = a.renderAnalyticsTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (a App) hints() string {
	switch {
	case a.roomsTab.confirmRemove, a.calc.confirmClear, a.hist.confirmRemove:
		return "[y] confirm  [n] cancel"
	case a.editing():
		return "[enter] save  [esc] cancel"
	}
	return "[?] help  [q] quit"
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
