package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent classification runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			l, closeLedger, err := openLedger(ctx, settings)
			if err != nil {
				return err
			}
			defer closeLedger()

			runs, err := l.Runs(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "기록된 실행이 없습니다")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "일시\t입력\t전체\t정확\tFuzzy\tN-gram\tAI\t미매칭\t비용(USD)")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.4f\n",
					r.StartedAt.Local().Format("2006-01-02 15:04"), r.Input, r.Total,
					r.Exact, r.Fuzzy, r.NGram, r.AI, r.Unmatched, r.CostUSD)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int("limit", 20, "number of runs to show")
	return cmd
}
