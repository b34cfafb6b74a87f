package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/cardsort/internal/cli"
	"github.com/Veraticus/cardsort/internal/common"
	"github.com/Veraticus/cardsort/internal/feedback"
	"github.com/Veraticus/cardsort/internal/normalize"
	"github.com/Veraticus/cardsort/internal/tabular"
	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Apply manually confirmed categories to the reference DB",
		Long: `Read a confirmation file (the --feedback-file of classify with the 확정용도
column filled in), log every confirmed row and upsert it into the reference DB.
The previous reference DB is backed up first.

Examples:
  cardsort feedback --input confirm.csv
  cardsort feedback --input confirm.csv --no-update   # log only`,
		RunE: runFeedback,
	}

	cmd.Flags().StringP("input", "i", "", "confirmation file")
	cmd.Flags().Bool("no-update", false, "log the feedback without changing the reference DB")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runFeedback(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	input, _ := cmd.Flags().GetString("input")
	noUpdate, _ := cmd.Flags().GetBool("no-update")

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	entries, err := tabular.ReadFeedback(input)
	if err != nil {
		return common.NewUserError("피드백 파일을 읽을 수 없습니다", err)
	}

	l, closeLedger, err := openLedger(ctx, settings)
	if err != nil {
		return err
	}
	defer closeLedger()

	m := feedback.New(l, normalize.New(settings.Normalize.Synonyms), feedbackConfig(settings), slog.Default())
	res, err := m.Collect(ctx, entries, !noUpdate)
	if err != nil {
		return err
	}

	due, err := m.RetrainDue(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderFeedback(res, due))
	return nil
}
