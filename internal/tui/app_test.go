package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/store"
	"github.com/theirongolddev/roomtally/internal/tui/components"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestRepo(t *testing.T) *ledger.Repository {
	t.Helper()
	return ledger.New(store.NewMemory(), zap.NewNop(), ledger.WithClock(clock))
}

// newTestApp builds a loaded, sized dashboard over repo.
func newTestApp(t *testing.T, repo *ledger.Repository) App {
	t.Helper()
	a := NewApp(repo, config.DefaultConfig(), false)
	a.now = clock
	a.calc = newCalcState(fixedNow)
	a.hist.month = monthOf(fixedNow)
	a.saveConfig = func(config.Config) error { return nil }

	a = feed(t, a, a.loadCmd("", true, nil)())
	return feed(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
}

// feed sends msg and runs any returned ledger reload to completion.
func feed(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, cmd := a.Update(msg)
	a = m.(App)
	if cmd != nil {
		if loaded, ok := cmd().(loadedMsg); ok {
			return feed(t, a, loaded)
		}
	}
	return a
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		a = feed(t, a, keyMsg(k))
	}
	return a
}

func TestAddAndRemoveRooms(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a := newTestApp(t, repo)

	a = press(t, a, "a", "Room 101", "enter", "a", "Room 102", "enter")
	assert.Equal(t, []string{"Room 101", "Room 102"}, a.rooms)

	rooms, err := repo.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Room 101", "Room 102"}, rooms)

	a = press(t, a, "d", "n")
	assert.Len(t, a.rooms, 2, "declined removal must keep the room")

	a = press(t, a, "d", "y")
	assert.Equal(t, []string{"Room 102"}, a.rooms)
	assert.Contains(t, a.notice, "Room 101")
}

func TestBlankRoomNameIsIgnored(t *testing.T) {
	a := newTestApp(t, newTestRepo(t))
	a = press(t, a, "a", "   ", "enter")
	assert.Empty(t, a.rooms)
	assert.False(t, a.roomsTab.adding)
}

func TestCalculatorRecordsTotal(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, r := range []string{"A", "B"} {
		_, err := repo.AddRoom(ctx, r)
		require.NoError(t, err)
	}
	a := newTestApp(t, repo)

	a = press(t, a, "2", "enter", "10", "enter")
	assert.Equal(t, 1, a.calc.cursor, "enter moves to the next room")

	persisted, err := repo.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", persisted.Amount("A"), "leaving the field persists the amount")

	a = press(t, a, "enter", "5.5abc", "enter")
	assert.InDelta(t, 15.5, a.session.Total(), 1e-9)

	a = press(t, a, "c")
	require.NotNil(t, a.calc.last)
	assert.InDelta(t, 15.5, a.calc.last.Total, 1e-9)
	assert.Equal(t, "2025-03-14", a.calc.last.Date)
	require.Len(t, a.records, 1)

	a = press(t, a, "[", "c")
	require.Len(t, a.records, 2)
	assert.Equal(t, "2025-03-13", a.records[1].Date)

	a = press(t, a, "X", "y")
	assert.Zero(t, a.session.Total())
	persisted, err = repo.LoadBudgets(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted.Entries())
}

func TestHistoryNavigateDeleteAndEdit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, r := range []struct {
		total float64
		date  string
	}{{40, "2025-03-02"}, {10, "2025-03-01"}, {7, "2025-02-10"}} {
		_, err := repo.Append(ctx, r.total, r.date)
		require.NoError(t, err)
	}
	a := newTestApp(t, repo)

	a = press(t, a, "3")
	recs := a.monthRecords()
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-03-01", recs[0].Date, "month view is date sorted")

	a = press(t, a, "j", "d", "y")
	stored, err := repo.Records(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "2025-03-01", stored[0].Date)

	rec := a.monthRecords()[0]
	a = feed(t, a, a.saveHistoryEdit(rec, historyEditValues{total: "12.5", date: "2025-03-05"})())
	got, err := repo.Find(ctx, rec.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got.Total, 1e-9)
	assert.Equal(t, "2025-03-05", got.Date)

	a = feed(t, a, a.saveHistoryEdit(got, historyEditValues{total: "0", date: "2025-03-05"})())
	assert.True(t, a.noticeErr, "non-positive totals are rejected")

	a = press(t, a, "[")
	assert.Equal(t, "February 2025", a.hist.month)
	assert.Len(t, a.monthRecords(), 1)
}

func TestSettingsThemeChange(t *testing.T) {
	t.Cleanup(func() { theme.SetActive("flexoki-dark") })
	a := newTestApp(t, newTestRepo(t))

	var saved config.Config
	a.saveConfig = func(c config.Config) error { saved = c; return nil }
	a.settings.cursor = settingsFieldTheme

	require.Error(t, a.settingsSave("neon"))
	require.NoError(t, a.settingsSave("tokyo-night"))
	assert.Equal(t, "tokyo-night", saved.Appearance.Theme)
	assert.Equal(t, "tokyo-night", theme.Active.Name)
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.AddRoom(ctx, "Room 101")
	require.NoError(t, err)
	_, err = repo.Append(ctx, 40, "2025-03-02")
	require.NoError(t, err)
	a := newTestApp(t, repo)

	want := []string{"Rooms (1)", "Daily total", "Calculations", "Monthly revenue", "Store backend"}
	for tab, s := range want {
		a.activeTab = tab
		if view := a.View(); !strings.Contains(view, s) {
			t.Fatalf("tab %d view missing %q", tab, s)
		}
	}
}
