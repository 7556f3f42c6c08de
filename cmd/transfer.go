package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/ledger"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write rooms, amounts and history to a JSON backup (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace rooms, amounts and history with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		snap, err := repo.Export(ctx)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		data := buf.Bytes()

		if len(args) == 0 {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(args[0], data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", args[0], err)
		}
		info("  Exported %d rooms and %d calculations to %s\n", len(snap.Rooms), len(snap.Calculations), args[0])
		return nil
	})
}

func runImport(_ *cobra.Command, args []string) error {
	snap, err := readSnapshot(args[0])
	if err != nil {
		return err
	}
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		if err := repo.Import(ctx, snap); err != nil {
			return err
		}
		info("  Imported %d rooms and %d calculations\n", len(snap.Rooms), len(snap.Calculations))
		return nil
	})
}

func readSnapshot(path string) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // backup path is given by the local user
		if err != nil {
			return snap, fmt.Errorf("opening %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decoding %s: %w", path, err)
	}
	return snap, nil
}
