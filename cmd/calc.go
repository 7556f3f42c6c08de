package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/model"
	"github.com/theirongolddev/roomtally/internal/pipeline"
)

var flagCalcDate string

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Total the entered amounts and record them for a day",
	Args:  cobra.NoArgs,
	RunE:  runCalc,
}

func init() {
	calcCmd.Flags().StringVar(&flagCalcDate, "date", "", "Day to record (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(_ *cobra.Command, _ []string) error {
	var day time.Time
	if flagCalcDate != "" {
		d, err := time.ParseInLocation(model.DateLayout, flagCalcDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", flagCalcDate)
		}
		day = d
	}

	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		session, err := repo.LoadBudgets(ctx)
		if err != nil {
			return err
		}
		rec, err := repo.CalculateAndRecord(ctx, session, day)
		if err != nil {
			return err
		}
		fmt.Printf("  Recorded %s for %s\n",
			cli.Money(cli.FormatAmount(rec.Total, appCfg.General.Currency)),
			pipeline.FormatDisplayDate(rec.Date))
		info("  id %s\n", rec.ID)
		return nil
	})
}
