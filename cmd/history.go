package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/pipeline"
)

var (
	flagHistoryMonth string
	flagHistoryPrev  bool
	flagHistoryNext  bool

	flagEditTotal float64
	flagEditDate  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List one month of recorded calculations",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <date> <total>",
	Short: "Remove the first calculation matching date and total",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryRemove,
}

var historyRemoveIDCmd = &cobra.Command{
	Use:   "rm-id <id>",
	Short: "Remove a calculation by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRemoveID,
}

var historyEditCmd = &cobra.Command{
	Use:   "edit <index|id>",
	Short: "Change the total or date of a calculation",
	Long: "Change the total or date of a calculation. A number selects the record by its\n" +
		"position in the date-sorted history (the # column); anything else is an id.",
	Args: cobra.ExactArgs(1),
	RunE: runHistoryEdit,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryMonth, "month", "", `Month to show, e.g. "January 2025" (default current month)`)
	historyCmd.Flags().BoolVar(&flagHistoryPrev, "prev", false, "Show the month before --month")
	historyCmd.Flags().BoolVar(&flagHistoryNext, "next", false, "Show the month after --month")
	historyCmd.MarkFlagsMutuallyExclusive("prev", "next")

	historyEditCmd.Flags().Float64Var(&flagEditTotal, "total", 0, "New total")
	historyEditCmd.Flags().StringVar(&flagEditDate, "date", "", "New date (YYYY-MM-DD)")

	historyCmd.AddCommand(historyRemoveCmd, historyRemoveIDCmd, historyEditCmd)
	rootCmd.AddCommand(historyCmd)
}

// selectedMonth resolves --month, --prev and --next into a month label.
func selectedMonth(now time.Time) (string, error) {
	month := flagHistoryMonth
	if month == "" {
		month = pipeline.MonthLabel(now)
	}
	delta := 0
	switch {
	case flagHistoryPrev:
		delta = pipeline.Prev
	case flagHistoryNext:
		delta = pipeline.Next
	}
	shifted, err := pipeline.ShiftMonth(month, delta)
	if err != nil {
		return "", fmt.Errorf("invalid --month %q, want e.g. \"January 2025\"", month)
	}
	return shifted, nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	month, err := selectedMonth(time.Now())
	if err != nil {
		return err
	}

	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		sorted, err := repo.List(ctx)
		if err != nil {
			return err
		}
		summary := pipeline.SummarizeMonth(sorted, month)

		fmt.Println()
		fmt.Println(cli.RenderTitle(summary.Month))
		fmt.Println()
		if len(summary.Records) == 0 {
			fmt.Println("  No calculations this month.")
			return nil
		}

		index := make(map[model.CalculationRecord]int, len(sorted))
		for i, r := range sorted {
			if _, seen := index[r]; !seen {
				index[r] = i
			}
		}
		rows := make([][]string, 0, len(summary.Records)+2)
		for _, r := range summary.Records {
			rows = append(rows, []string{
				strconv.Itoa(index[r]),
				pipeline.FormatDisplayDate(r.Date),
				cli.FormatMoney(r.Total),
				r.ID,
			})
		}
		rows = append(rows, cli.Separator,
			[]string{"", "Month total", cli.FormatAmount(summary.Total, appCfg.General.Currency), ""})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"#", "Date", "Total", "ID"},
			Rows:    rows,
		}))
		return nil
	})
}

func runHistoryRemove(_ *cobra.Command, args []string) error {
	date := args[0]
	total, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid total %q", args[1])
	}
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		removed, err := repo.Remove(ctx, date, total)
		if err != nil {
			return err
		}
		if !removed {
			info("  No calculation of %s on %s\n", cli.FormatMoney(total), date)
			return nil
		}
		info("  Removed %s on %s\n", cli.FormatMoney(total), pipeline.FormatDisplayDate(date))
		return nil
	})
}

func runHistoryRemoveID(_ *cobra.Command, args []string) error {
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		if err := repo.RemoveByID(ctx, args[0]); err != nil {
			return err
		}
		info("  Removed %s\n", args[0])
		return nil
	})
}

func runHistoryEdit(cmd *cobra.Command, args []string) error {
	target := args[0]
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		index, byIndex := -1, false
		if n, err := strconv.Atoi(target); err == nil {
			index, byIndex = n, true
		}

		current, err := findEditTarget(ctx, repo, target, index, byIndex)
		if err != nil {
			return err
		}
		total, date := current.Total, current.Date
		if cmd.Flags().Changed("total") {
			total = flagEditTotal
		}
		if cmd.Flags().Changed("date") {
			if _, err := time.Parse(model.DateLayout, flagEditDate); err != nil {
				return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", flagEditDate)
			}
			date = flagEditDate
		}

		var updated model.CalculationRecord
		if byIndex {
			updated, err = repo.UpdateAt(ctx, index, total, date)
		} else {
			updated, err = repo.UpdateByID(ctx, target, total, date)
		}
		if err != nil {
			return err
		}
		info("  Saved %s on %s\n", cli.FormatMoney(updated.Total), pipeline.FormatDisplayDate(updated.Date))
		return nil
	})
}

func findEditTarget(ctx context.Context, repo *ledger.Repository, id string, index int, byIndex bool) (model.CalculationRecord, error) {
	if !byIndex {
		return repo.Find(ctx, id)
	}
	sorted, err := repo.List(ctx)
	if err != nil {
		return model.CalculationRecord{}, err
	}
	if index < 0 || index >= len(sorted) {
		return model.CalculationRecord{}, fmt.Errorf("index %d of %d: %w", index, len(sorted), ledger.ErrIndexOutOfRange)
	}
	return sorted[index], nil
}
