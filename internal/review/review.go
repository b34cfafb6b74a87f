// Package review asks a model to double-check low-confidence classifications
// and settles each row's final category.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/model"
)

// Config tunes row selection and the review request.
type Config struct {
	CatchAll    string
	Model       string
	Categories  []string // labels a MODIFY may assign; empty allows any
	Threshold   float64
	Temperature float64
	BatchSize   int
	MaxTokens   int
}

// Reviewer runs the review stage. It never returns an error; provider
// failures degrade to confirming the original classification.
type Reviewer struct {
	client llm.Client
	meter  *llm.Meter
	logger *slog.Logger
	valid  map[string]bool
	cfg    Config
}

// New creates a Reviewer with its own usage meter.
func New(client llm.Client, cfg Config, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}

	var valid map[string]bool
	if len(cfg.Categories) > 0 {
		valid = make(map[string]bool, len(cfg.Categories))
		for _, c := range cfg.Categories {
			valid[c] = true
		}
	}

	return &Reviewer{
		client: client,
		meter:  llm.NewMeter(cfg.Model),
		logger: logger,
		valid:  valid,
		cfg:    cfg,
	}
}

// Meter exposes the review stage's usage counters.
func (r *Reviewer) Meter() *llm.Meter {
	return r.meter
}

// Selected reports whether row needs a model review.
func (r *Reviewer) Selected(row model.Row) bool {
	res := row.Result
	return !res.Matched() ||
		res.Confidence() < r.cfg.Threshold ||
		(r.cfg.CatchAll != "" && res.Category() == r.cfg.CatchAll)
}

// Review returns one FinalRow per input row, in input order.
func (r *Reviewer) Review(ctx context.Context, rows []model.Row) []model.FinalRow {
	final := make([]model.FinalRow, len(rows))
	var selected []int
	for i, row := range rows {
		final[i] = model.FinalRow{
			Row:             row,
			FinalCategory:   row.Result.Category(),
			FinalConfidence: row.Result.Confidence(),
			Status:          model.StatusAutoConfirmed,
		}
		if r.Selected(row) {
			selected = append(selected, i)
		}
	}

	r.logger.Info("Reviewing classifications",
		"rows", len(rows),
		"selected", len(selected),
		"batch_size", r.cfg.BatchSize)

	for start := 0; start < len(selected); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(selected))
		r.reviewBatch(ctx, rows, final, selected[start:end])
	}
	return final
}

func (r *Reviewer) reviewBatch(ctx context.Context, rows []model.Row, final []model.FinalRow, batch []int) {
	batchRows := make([]model.Row, len(batch))
	byID := make(map[string]int, len(batch))
	for i, idx := range batch {
		batchRows[i] = rows[idx]
		byID[rows[idx].ID] = idx
	}

	resp, err := r.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      userPrompt(batchRows, r.cfg.Categories),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		r.meter.RecordFailure()
		class := llm.Classify(err)
		r.logger.Warn("Review batch failed, confirming originals",
			"batch_rows", len(batch),
			"class", class,
			"error", err)
		for _, idx := range batch {
			final[idx].Status = model.StatusAIConfirmed
			final[idx].Reason = fmt.Sprintf("오류로 자동 확정(%s)", class)
		}
		return
	}
	r.meter.RecordSuccess(resp.Usage)

	applied := 0
	for _, d := range parseReviews(resp.Text) {
		idx, ok := byID[d.TransactionID]
		if !ok {
			r.logger.Debug("Ignoring review for unknown transaction", "id", d.TransactionID)
			continue
		}
		if r.apply(&final[idx], d) {
			applied++
		}
	}
	if applied < len(batch) {
		r.logger.Warn("Some reviews were missing or unusable",
			"batch_rows", len(batch),
			"applied", applied)
	}
}

func (r *Reviewer) apply(f *model.FinalRow, d model.ReviewDecision) bool {
	switch d.Decision {
	case model.DecisionConfirm:
		f.Status = model.StatusAIConfirmed
	case model.DecisionModify:
		if d.FinalCategory == "" || (r.valid != nil && !r.valid[d.FinalCategory]) {
			r.logger.Debug("Ignoring modification to unknown category",
				"id", d.TransactionID,
				"category", d.FinalCategory)
			return false
		}
		f.FinalCategory = d.FinalCategory
		f.FinalConfidence = d.FinalConfidence
		f.Status = model.StatusAIModified
	case model.DecisionNeedsHumanReview:
		f.Status = model.StatusNeedsHumanReview
	default:
		return false
	}
	f.Reason = d.Reason
	return true
}
