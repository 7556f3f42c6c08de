package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/roomtally/internal/cli"
	"github.com/theirongolddev/roomtally/internal/ledger"
	"github.com/theirongolddev/roomtally/internal/pipeline"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Monthly revenue chart across all recorded calculations",
	Args:  cobra.NoArgs,
	RunE:  runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(_ *cobra.Command, _ []string) error {
	return withRepository(func(ctx context.Context, repo *ledger.Repository) error {
		records, err := repo.Records(ctx)
		if err != nil {
			return err
		}
		series := pipeline.GroupByMonth(records)
		if len(series) == 0 {
			fmt.Println("\n  No calculations recorded yet.")
			return nil
		}
		currency := appCfg.General.Currency

		fmt.Println()
		fmt.Println(cli.RenderTitle("MONTHLY REVENUE"))
		fmt.Println()
		fmt.Print(cli.RenderMonthChart(series, currency, 36))
		fmt.Println()

		grand := pipeline.Grand(series)
		peak, _ := pipeline.Peak(series)
		rows := make([][]string, 0, len(series)+4)
		for _, m := range series {
			share := 0.0
			if grand > 0 {
				share = m.Total / grand
			}
			rows = append(rows, []string{m.Month, cli.FormatMoney(m.Total), cli.FormatPercent(share)})
		}
		rows = append(rows, cli.Separator,
			[]string{"All time", cli.FormatAmount(grand, currency), ""},
			[]string{"Best month", peak.Month, cli.FormatAmount(peak.Total, currency)},
		)
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Month", "Total", "Share"},
			Rows:    rows,
		}))
		return nil
	})
}
