package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/cardsort/internal/cli"
	"github.com/Veraticus/cardsort/internal/common"
	"github.com/Veraticus/cardsort/internal/config"
	"github.com/Veraticus/cardsort/internal/engine"
	"github.com/Veraticus/cardsort/internal/feedback"
	"github.com/Veraticus/cardsort/internal/ledger"
	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/match"
	"github.com/Veraticus/cardsort/internal/model"
	"github.com/Veraticus/cardsort/internal/normalize"
	"github.com/Veraticus/cardsort/internal/ofx"
	"github.com/Veraticus/cardsort/internal/rules"
	"github.com/Veraticus/cardsort/internal/tabular"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify card transactions",
		Long: `Classify every transaction in a card statement export (CSV or OFX/QFX).

Merchants are normalized and matched against the reference DB (exact, fuzzy,
n-gram). With --ai, merchants that still have no category are sent to the
configured language model and checked against keyword and amount rules.

Examples:
  cardsort classify --input 2024-03.csv
  cardsort classify --input 2024-03.csv --ai --feedback-file confirm.csv
  cardsort classify --input statement.qfx --output out/results.csv`,
		RunE: runClassify,
	}

	cmd.Flags().StringP("input", "i", "", "statement file (.csv, .ofx, .qfx)")
	cmd.Flags().StringP("output", "o", "", "results file (default: <output_dir>/<input>_분류결과.csv)")
	cmd.Flags().Bool("ai", false, "send unmatched merchants to the language model")
	cmd.Flags().String("feedback-file", "", "also write low-confidence rows for manual confirmation")
	_ = cmd.MarkFlagRequired("input")

	_ = viper.BindPFlag("llm.enabled", cmd.Flags().Lookup("ai"))

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	feedbackFile, _ := cmd.Flags().GetString("feedback-file")
	started := time.Now()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	txns, err := readStatement(cmd, input)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return common.NewUserError("분류할 거래가 없습니다", common.ErrNoTransactions)
	}

	normalizer := normalize.New(settings.Normalize.Synonyms)
	ref, err := loadStore(settings, normalizer)
	if err != nil {
		return err
	}

	deps := engine.Deps{
		Normalizer: normalizer,
		Matcher:    match.NewCascade(ref, settings.Matching),
		Rules:      rules.New(settings.Rules),
		Reference:  ref.Entries(),
	}
	if settings.LLM.Enabled {
		client, clientErr := newClient(settings.LLM, settings.LLM.Model)
		if clientErr != nil {
			return clientErr
		}
		deps.Predictor = llm.NewPredictor(client, llm.PredictorConfig{
			Model:       settings.LLM.Model,
			Sentinel:    settings.LLM.Sentinel,
			Taxonomy:    settings.LLM.Taxonomy,
			Temperature: settings.LLM.Temperature,
			MaxTokens:   settings.LLM.MaxTokens,
		}, slog.Default())
	}

	eng, err := engine.New(deps, engine.Config{
		FewShotStrategy: llm.Strategy(settings.LLM.FewShotStrategy),
		FewShotCount:    settings.LLM.FewShotCount,
		Seed:            uint64(settings.Feedback.Seed),
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	progress := cli.NewProgress(cmd.ErrOrStderr(), len(txns), "분류 중")
	eng.OnProgress(progress.Set)
	rows, summary := eng.Classify(ctx, txns)
	progress.Finish()

	if ctx.Err() != nil {
		return fmt.Errorf("classification interrupted: %w", ctx.Err())
	}

	if output == "" {
		output = defaultResultsPath(settings, input)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := tabular.WriteResults(output, rows); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	l, closeLedger, err := openLedger(ctx, settings)
	if err != nil {
		return err
	}
	defer closeLedger()

	if feedbackFile != "" {
		m := feedback.New(l, normalizer, feedbackConfig(settings), slog.Default())
		n, exportErr := m.ExportForFeedback(feedbackFile, rows)
		if exportErr != nil {
			return exportErr
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("확인이 필요한 %d건을 %s에 저장했습니다", n, feedbackFile)))
	}

	if _, err := l.RecordRun(ctx, runRecord(input, started, summary)); err != nil {
		slog.Warn("Failed to record run", "error", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSummary(summary))
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("결과 저장: "+output))
	return nil
}

func readStatement(cmd *cobra.Command, path string) ([]model.Transaction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		f, err := os.Open(path)
		if err != nil {
			return nil, common.NewUserError("입력 파일을 열 수 없습니다", err)
		}
		defer func() { _ = f.Close() }()

		st, err := ofx.NewParser(slog.Default()).Parse(cmd.Context(), f)
		if err != nil {
			return nil, common.NewUserError("OFX 파일을 읽을 수 없습니다", err)
		}
		return st.Transactions, nil
	default:
		txns, err := tabular.ReadTransactionsFile(path)
		if err != nil {
			return nil, common.NewUserError("입력 파일을 읽을 수 없습니다", err)
		}
		return txns, nil
	}
}

func defaultResultsPath(s config.Settings, input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(s.Paths.OutputDir, stem+"_분류결과.csv")
}

func feedbackConfig(s config.Settings) feedback.Config {
	return feedback.Config{
		StorePath:        s.Paths.MasterDB,
		BackupDir:        s.Paths.BackupDir,
		RetrainThreshold: s.Feedback.RetrainThreshold,
		ReviewThreshold:  s.Review.Threshold,
	}
}

func runRecord(input string, started time.Time, s engine.Summary) ledger.Run {
	return ledger.Run{
		StartedAt:  started,
		Input:      input,
		Total:      s.Total,
		Exact:      s.BySource[model.SourceExact],
		Fuzzy:      s.BySource[model.SourceFuzzy],
		NGram:      s.BySource[model.SourceNGram],
		AI:         s.BySource[model.SourceAI] + s.BySource[model.SourceAIRule],
		Unmatched:  s.Unmatched,
		AICalls:    s.AI.Calls,
		AIFailures: s.AI.Failures,
		CostUSD:    s.AI.EstimatedCostUSD,
	}
}
