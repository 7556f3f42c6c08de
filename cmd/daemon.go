package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/config"
	"github.com/theirongolddev/roomtally/internal/daemon"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve ledger summaries over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := filepath.Join(config.DataDir(), "roomtallyd.pid")
	defaultLog := filepath.Join(config.DataDir(), "roomtallyd.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Output file for --detach")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Events kept for /v1/events replay")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Start in the background and return")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Run as the background child of --detach")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonAddr is --addr or the configured daemon address.
func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return appCfg.Daemon.Addr
}

func daemonInterval() time.Duration {
	if flagDaemonInterval > 0 {
		return flagDaemonInterval
	}
	return appCfg.Daemon.Interval()
}

func daemonPIDFile() daemon.PIDFile {
	return daemon.PIDFile{Path: flagDaemonPIDFile}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("--detach and --child are mutually exclusive")
	case flagDaemonDetach:
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

// startDaemonDetached re-executes the binary as a background child whose
// output goes to --log-file. The child writes its own pid file.
func startDaemonDetached() error {
	if pid, alive := daemonPIDFile().Running(); alive {
		return fmt.Errorf("%w (pid %d)", daemon.ErrAlreadyRunning, pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating roomtally binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	//nolint:gosec // log path comes from the local user's flags
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, daemon.ChildArgs(os.Args[1:])...) //nolint:gosec // re-exec of the current binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("starting background daemon: %w", err)
	}

	info("  Started roomtally daemon (pid %d)\n", child.Process.Pid)
	info("  Status: http://%s/v1/status\n", daemonAddr())
	info("  Log:    %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground() error {
	pidFile := daemonPIDFile()
	pid := os.Getpid()
	if err := pidFile.Acquire(pid); err != nil {
		return err
	}
	defer pidFile.Remove()

	addr, interval := daemonAddr(), daemonInterval()
	if err := pidFile.WriteState(daemon.RuntimeState{
		PID:       pid,
		Addr:      addr,
		StartedAt: time.Now(),
		Store:     appCfg.Store.Backend,
		Interval:  interval.String(),
	}); err != nil {
		appLog.Warn("writing daemon state", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	svc := daemon.New(daemon.Config{
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: flagDaemonEventsBuffer,
		Currency:     appCfg.General.Currency,
	}, repo, appLog.Named("daemon"))

	info("  roomtally daemon listening on http://%s\n", addr)
	info("  Polling the %s store every %s\n", appCfg.Store.Backend, interval)
	info("  Stop with: roomtally daemon stop --pid-file %s\n", flagDaemonPIDFile)
	appLog.Info("daemon started", zap.String("addr", addr), zap.Duration("interval", interval))

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	pidFile := daemonPIDFile()
	pid, alive := pidFile.Running()
	switch {
	case pid == 0:
		fmt.Printf("  Daemon: not running\n")
		return nil
	case !alive:
		fmt.Printf("  Daemon: not running (pid %d in %s has exited)\n", pid, pidFile.Path)
		return nil
	}

	addr := daemonAddr()
	if st, err := pidFile.ReadState(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	client := daemon.NewClient(addr)
	st, err := client.Status(ctx)
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  Rooms: %d\n", st.Summary.Rooms)
	fmt.Printf("  Calculations: %d\n", st.Summary.Records)
	fmt.Printf("  All time: %s\n", cli.FormatAmount(st.Summary.AllTimeTotal, st.Currency))
	fmt.Printf("  %s: %s\n", st.Summary.CurrentMonth, cli.FormatAmount(st.Summary.CurrentMonthTotal, st.Currency))
	fmt.Printf("  Draft total: %s\n", cli.FormatAmount(st.Summary.DraftTotal, st.Currency))
	if months, err := client.Months(ctx); err == nil && len(months.Months) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderMonthChart(months.Months, months.Currency, 24))
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pidFile := daemonPIDFile()
	pid, alive := pidFile.Running()
	if !alive {
		pidFile.Remove()
		return errors.New("daemon is not running")
	}
	if err := daemon.Terminate(pid, 8*time.Second); err != nil {
		return err
	}
	pidFile.Remove()
	fmt.Printf("  Stopped roomtally daemon (pid %d)\n", pid)
	return nil
}
