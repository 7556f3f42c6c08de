package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/tui"
	"github.com/theirongolddev/roomtally/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Card backgrounds need colour output even when detection says Ascii.
	lipgloss.SetColorProfile(termenv.TrueColor)

	repo, err := openRepository(context.Background())
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	app := tui.NewApp(repo, appCfg, !config.Exists())
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
