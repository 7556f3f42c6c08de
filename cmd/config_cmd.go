package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Currency:   %s\n", cfg.General.Currency)
	fmt.Printf("    Log level:  %s\n", cfg.General.LogLevel)
	fmt.Printf("    Log format: %s\n", cfg.General.LogFormat)
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Backend: %s\n", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case "redis":
		fmt.Printf("    Address: %s (db %d)\n", cfg.Store.RedisAddr, cfg.Store.RedisDB)
		fmt.Printf("    Prefix:  %s\n", cfg.Store.RedisPrefix)
		if cfg.Store.RedisPassword != "" {
			fmt.Printf("    Password: %s\n", maskSecret(cfg.Store.RedisPassword))
		}
	case "sqlite":
		fmt.Printf("    Path:    %s\n", cfg.DBPath())
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval())
	fmt.Println()

	fmt.Println("  Run `roomtally setup` to reconfigure.")
	return nil
}

func maskSecret(s string) string {
	if len(s) > 8 {
		return s[:2] + "..." + s[len(s)-2:]
	}
	return "****"
}
