package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/cardsort/internal/cli"
	"github.com/Veraticus/cardsort/internal/feedback"
	"github.com/Veraticus/cardsort/internal/normalize"
	"github.com/spf13/cobra"
)

func retrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Inspect or export the retraining data set",
	}
	cmd.AddCommand(retrainStatusCmd())
	cmd.AddCommand(retrainExportCmd())
	return cmd
}

func retrainStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show feedback collected since the last retrain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			l, closeLedger, err := openLedger(ctx, settings)
			if err != nil {
				return err
			}
			defer closeLedger()

			w, err := l.Watermark(ctx)
			if err != nil {
				return err
			}
			pending, err := l.Pending(ctx)
			if err != nil {
				return err
			}

			last := "없음"
			if !w.MarkedAt.IsZero() {
				last = w.MarkedAt.Local().Format("2006-01-02 15:04")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "마지막 재학습: %s\n", last)
			fmt.Fprintf(out, "누적 피드백: %d건 (재학습 이후 %d건, 기준 %d건)\n",
				w.Count+pending, pending, settings.Feedback.RetrainThreshold)
			if pending >= settings.Feedback.RetrainThreshold {
				fmt.Fprintln(out, cli.FormatWarning("재학습이 필요합니다: cardsort retrain export"))
			}
			return nil
		},
	}
}

func retrainExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a train/test split of the reference DB and reset the trigger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dir, _ := cmd.Flags().GetString("dir")

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = settings.Paths.OutputDir
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}

			l, closeLedger, err := openLedger(ctx, settings)
			if err != nil {
				return err
			}
			defer closeLedger()

			m := feedback.New(l, normalize.New(settings.Normalize.Synonyms), feedbackConfig(settings), slog.Default())
			split, err := m.ExportTrainingData(ctx, dir, settings.Feedback.TrainRatio, settings.Feedback.Seed)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"학습 %d건 → %s, 검증 %d건 → %s", split.Train, split.TrainPath, split.Test, split.TestPath)))
			return nil
		},
	}
	cmd.Flags().String("dir", "", "export directory (default: output_dir)")
	return cmd
}
