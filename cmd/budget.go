package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show the entered amounts and their running total",
	Args:  cobra.NoArgs,
	RunE:  runBudget,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <room> <amount>",
	Short: "Set the amount entered for a registered room",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetSet,
}

var budgetClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear every entered amount",
	Args:  cobra.NoArgs,
	RunE:  runBudgetClear,
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd, budgetClearCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(_ *cobra.Command, _ []string) error {
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		session, err := repo.LoadBudgets(ctx)
		if err != nil {
			return err
		}
		entries := session.Entries()
		if len(entries) == 0 {
			fmt.Println("\n  No amounts entered.")
			return nil
		}

		rows := make([][]string, 0, len(entries)+2)
		for _, e := range entries {
			rows = append(rows, []string{e.Room, e.Amount, cli.FormatMoney(ledger.ParseAmount(e.Amount))})
		}
		rows = append(rows, cli.Separator,
			[]string{"Total", "", cli.FormatAmount(session.Total(), appCfg.General.Currency)})

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Entered amounts",
			Headers: []string{"Room", "Entered", "Value"},
			Rows:    rows,
		}))
		return nil
	})
}

func runBudgetSet(_ *cobra.Command, args []string) error {
	room, amount := args[0], args[1]
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		session, err := repo.SetBudget(ctx, room, amount)
		if err != nil {
			return err
		}
		info("  %s = %s (total %s)\n", room, cli.FormatMoney(ledger.ParseAmount(amount)),
			cli.FormatAmount(session.Total(), appCfg.General.Currency))
		return nil
	})
}

func runBudgetClear(_ *cobra.Command, _ []string) error {
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		session, err := repo.LoadBudgets(ctx)
		if err != nil {
			return err
		}
		if err := session.ClearAll(ctx); err != nil {
			return err
		}
		info("  Cleared all amounts\n")
		return nil
	})
}
