// Package cmd implements the roomtally CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/logger"
	"github.com/theirongolddev/roomtally/internal/store"
)

var (
	flagStore     string
	flagDB        string
	flagRedisAddr string
	flagQuiet     bool
	flagLogLevel  string
)

// Resolved once per invocation by the root PersistentPreRunE.
var (
	appCfg config.Config
	appLog = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:               "roomtally",
	Short:             "Daily room revenue tally",
	Long:              "Track per-room daily amounts, record daily totals and review them by month.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
	RunE:              runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	defer func() { _ = appLog.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", exitMessage(err))
		_ = appLog.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Store backend: sqlite, redis or memory")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagRedisAddr, "redis-addr", "", "Redis address (host:port)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// initRuntime loads .env, the config file and env overrides, applies the
// command-line flags on top and builds the logger.
func initRuntime(_ *cobra.Command, _ []string) error {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagStore != "" {
		cfg.Store.Backend = flagStore
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagRedisAddr != "" {
		cfg.Store.RedisAddr = flagRedisAddr
	}
	if flagLogLevel != "" {
		cfg.General.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.General.LogLevel, cfg.General.LogFormat, "roomtally")
	if err != nil {
		return err
	}
	appCfg, appLog = cfg, log
	return nil
}

// openRepository opens the configured store. Callers must Close the
// returned repository.
func openRepository(ctx context.Context) (*ledger.Repository, error) {
	s, err := store.Open(ctx, store.Config{
		Backend:       appCfg.Store.Backend,
		Path:          appCfg.DBPath(),
		RedisAddr:     appCfg.Store.RedisAddr,
		RedisPassword: appCfg.Store.RedisPassword,
		RedisDB:       appCfg.Store.RedisDB,
		RedisPrefix:   appCfg.Store.RedisPrefix,
	})
	if err != nil {
		return nil, err
	}
	appLog.Debug("store opened", zap.String("backend", appCfg.Store.Backend))
	return ledger.New(s, appLog), nil
}

// withRepository runs fn against a freshly opened repository.
func withRepository(fn func(ctx context.Context, repo *ledger.Repository) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	return fn(ctx, repo)
}

func info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// exitMessage turns sentinel errors into short CLI messages.
func exitMessage(err error) string {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		return "no calculation with that id"
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		return "no calculation at that position"
	case errors.Is(err, ledger.ErrUnknownRoom):
		return err.Error() + "; add it first with `roomtally rooms add <name>`"
	}
	return err.Error()
}
