package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List rooms with their current amounts",
	Args:  cobra.NoArgs,
	RunE:  runRooms,
}

var roomsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a room",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomsAdd,
}

var roomsRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a room and its amount",
	Args:    cobra.ExactArgs(1),
	RunE:    runRoomsRemove,
}

func init() {
	roomsCmd.AddCommand(roomsAddCmd, roomsRemoveCmd)
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(_ *cobra.Command, _ []string) error {
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		rooms, err := repo.ListRooms(ctx)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			fmt.Println("\n  No rooms yet. Add one with `roomtally rooms add <name>`.")
			return nil
		}
		session, err := repo.LoadBudgets(ctx)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(rooms))
		for i, room := range rooms {
			amount := "-"
			if text := session.Amount(room); text != "" {
				amount = cli.FormatMoney(ledger.ParseAmount(text))
			}
			rows = append(rows, []string{fmt.Sprint(i + 1), room, amount})
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Rooms (%d)", len(rooms)),
			Headers: []string{"#", "Room", "Amount (" + appCfg.General.Currency + ")"},
			Rows:    rows,
		}))
		return nil
	})
}

func runRoomsAdd(_ *cobra.Command, args []string) error {
	name := args[0]
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("room name must not be blank")
	}
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		rooms, err := repo.AddRoom(ctx, name)
		if err != nil {
			return err
		}
		info("  Added %q (%d rooms)\n", name, len(rooms))
		return nil
	})
}

func runRoomsRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		rooms, err := repo.RemoveRoomAndBudget(ctx, name)
		if err != nil {
			return err
		}
		info("  Removed %q (%d rooms left)\n", name, len(rooms))
		return nil
	})
}
