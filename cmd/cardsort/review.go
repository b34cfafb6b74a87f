package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/cardsort/internal/cli"
	"github.com/Veraticus/cardsort/internal/common"
	"github.com/Veraticus/cardsort/internal/review"
	"github.com/Veraticus/cardsort/internal/tabular"
	"github.com/spf13/cobra"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review low-confidence results and write the final file",
		Long: `Send low-confidence, unmatched and catch-all rows of a results file to the
language model in batches. Every row is then written to the final accounting
file with how its category was settled.

The output path may contain {month}, replaced by the statement month.

Examples:
  cardsort review --input out/2024-03_분류결과.csv --card 3987
  cardsort review --input results.csv --output "final/{month}월.csv"`,
		RunE: runReview,
	}

	cmd.Flags().StringP("input", "i", "", "results file written by classify")
	cmd.Flags().StringP("output", "o", "", "final file (default: <output_dir>/법인카드_(M)월_<card>.csv)")
	cmd.Flags().String("card", "", "card number used in the default file name")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	card, _ := cmd.Flags().GetString("card")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	rows, err := tabular.ReadResults(input)
	if err != nil {
		return common.NewUserError("결과 파일을 읽을 수 없습니다", err)
	}

	client, err := newClient(settings.LLM, settings.Review.Model)
	if err != nil {
		return err
	}
	reviewer := review.New(client, review.Config{
		Threshold:   settings.Review.Threshold,
		BatchSize:   settings.Review.BatchSize,
		CatchAll:    settings.Review.CatchAll,
		Model:       settings.Review.Model,
		MaxTokens:   settings.Review.MaxTokens,
		Temperature: settings.Review.Temperature,
		Categories:  settings.LLM.Taxonomy,
	}, slog.Default())

	final := reviewer.Review(ctx, rows)
	if ctx.Err() != nil {
		return fmt.Errorf("review interrupted: %w", ctx.Err())
	}

	month := tabular.StatementMonth(final, time.Now())
	if output == "" {
		if card == "" {
			return common.NewUserError("--output 또는 --card 중 하나가 필요합니다", common.ErrMissingConfig)
		}
		output = filepath.Join(settings.Paths.OutputDir, tabular.FinalFileName(month, card))
	}
	output = tabular.ExpandMonth(output, month)
	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := tabular.WriteFinal(output, final); err != nil {
		return fmt.Errorf("failed to write final output: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderReview(final, reviewer.Meter().Snapshot()))
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("최종 파일 저장: "+output))
	return nil
}
