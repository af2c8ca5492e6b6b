package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clintonboys/lit/internal/audit"
	"github.com/clintonboys/lit/internal/ui"
)

func costCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Show estimated spend across recent generation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, _ := loadProject()
			records, err := audit.List(generationsDir(root))
			if err != nil {
				return err
			}
			if len(records) == 0 {
				ui.PrintInfo("no generation history yet")
				return nil
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			rows := [][]string{{"WHEN", "MODEL", "TOKENS IN", "TOKENS OUT", "COST"}}
			var totalCost float64
			var totalIn, totalOut uint64
			for _, r := range records {
				rows = append(rows, []string{
					r.Timestamp.UTC().Format("2006-01-02 15:04:05"),
					r.Model,
					audit.FormatTokens(r.Summary.TotalTokensIn),
					audit.FormatTokens(r.Summary.TotalTokensOut),
					audit.FormatCost(r.Summary.TotalCostUSD),
				})
				totalCost += r.Summary.TotalCostUSD
				totalIn += r.Summary.TotalTokensIn
				totalOut += r.Summary.TotalTokensOut
			}
			fmt.Print(ui.Table(rows))
			fmt.Printf("\nTotal across %d run(s): %s in, %s out, %s\n",
				len(records), audit.FormatTokens(totalIn), audit.FormatTokens(totalOut), audit.FormatCost(totalCost))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 for all)")
	return cmd
}
