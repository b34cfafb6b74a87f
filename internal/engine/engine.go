// Package engine runs the classification pipeline: normalize, match against
// the reference store, fall back to the model, then post-process with rules.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/Veraticus/cardsort/internal/llm"
	"github.com/Veraticus/cardsort/internal/match"
	"github.com/Veraticus/cardsort/internal/model"
	"github.com/Veraticus/cardsort/internal/rules"
)

// ErrMissingDependency is returned when New is given a nil normalizer or matcher.
var ErrMissingDependency = errors.New("missing engine dependency")

// Normalizer canonicalizes raw merchant names.
type Normalizer interface {
	Normalize(raw string) string
}

// Predictor is the model fallback for merchants the cascade cannot place.
type Predictor interface {
	Predict(ctx context.Context, merchant string, examples []model.ReferenceEntry, c *llm.Context) llm.Prediction
	Meter() *llm.Meter
}

// PostProcessor adjusts model predictions with deterministic rules.
type PostProcessor interface {
	Process(merchant, category string, confidence float64, amount int64) rules.Outcome
	Hints(merchant string) []string
}

// Deps are the pipeline stages. Predictor and Rules may be nil; without a
// Predictor unmatched rows stay unmatched.
type Deps struct {
	Normalizer Normalizer
	Matcher    match.Matcher
	Predictor  Predictor
	Rules      PostProcessor
	Reference  []model.ReferenceEntry // few-shot pool
}

// Config tunes the model fallback.
type Config struct {
	FewShotStrategy llm.Strategy
	FewShotCount    int
	Seed            uint64
}

// Engine classifies transactions. It is single threaded; one Engine serves
// one run at a time.
type Engine struct {
	deps     Deps
	logger   *slog.Logger
	rng      *rand.Rand
	progress func(done, total int)
	cfg      Config
}

// New creates an Engine.
func New(deps Deps, cfg Config, logger *slog.Logger) (*Engine, error) {
	if deps.Normalizer == nil || deps.Matcher == nil {
		return nil, ErrMissingDependency
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FewShotStrategy == "" {
		cfg.FewShotStrategy = llm.StrategyDiverse
	}
	if _, err := llm.ParseStrategy(string(cfg.FewShotStrategy)); err != nil {
		return nil, err
	}

	return &Engine{
		deps:   deps,
		logger: logger,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
		cfg:    cfg,
	}, nil
}

// OnProgress registers fn to be called after each row.
func (e *Engine) OnProgress(fn func(done, total int)) {
	e.progress = fn
}

// Classify returns one Row per transaction, in input order, and a summary.
// Predictions are cached per normalized merchant, so a repeated merchant is
// classified with the date and amount of its first row; only the amount rules
// see each row's own amount.
func (e *Engine) Classify(ctx context.Context, txns []model.Transaction) ([]model.Row, Summary) {
	rows := make([]model.Row, 0, len(txns))
	cache := make(map[string]llm.Prediction)
	cacheHits := 0

	e.logger.Info("Starting classification",
		"transactions", len(txns),
		"reference_entries", len(e.deps.Reference),
		"ai_enabled", e.deps.Predictor != nil)

	for i, txn := range txns {
		txn.Merchant = e.deps.Normalizer.Normalize(txn.RawMerchant)

		result, ok := e.deps.Matcher.Match(txn.Merchant)
		if !ok && e.deps.Predictor != nil && txn.Merchant != "" {
			pred, cached := cache[txn.Merchant]
			if cached {
				cacheHits++
			} else {
				pred = e.predict(ctx, txn)
				cache[txn.Merchant] = pred
			}
			result = e.postProcess(txn, pred)
		}

		rows = append(rows, model.Row{Transaction: txn, Result: result})
		if e.progress != nil {
			e.progress(i+1, len(txns))
		}
	}

	summary := Summarize(rows)
	summary.CacheHits = cacheHits
	if e.deps.Predictor != nil {
		summary.AI = e.deps.Predictor.Meter().Snapshot()
	}

	e.logger.Info("Classification complete",
		"rows", summary.Total,
		"unmatched", summary.Unmatched,
		"ai_calls", summary.AI.Calls,
		"cache_hits", cacheHits)
	return rows, summary
}

func (e *Engine) predict(ctx context.Context, txn model.Transaction) llm.Prediction {
	examples, err := llm.SelectFewShot(e.deps.Reference, e.cfg.FewShotCount, e.cfg.FewShotStrategy, e.rng)
	if err != nil {
		// Strategy was validated in New.
		e.logger.Warn("Few-shot selection failed", "error", err)
	}

	c := &llm.Context{Date: txn.Date, Amount: txn.Amount}
	if e.deps.Rules != nil {
		c.Hints = e.deps.Rules.Hints(txn.Merchant)
	}
	return e.deps.Predictor.Predict(ctx, txn.Merchant, examples, c)
}

func (e *Engine) postProcess(txn model.Transaction, pred llm.Prediction) model.Result {
	if e.deps.Rules == nil {
		return model.AIResult(pred.Category, pred.Confidence, pred.Rationale, false)
	}

	out := e.deps.Rules.Process(txn.Merchant, pred.Category, pred.Confidence, txn.Amount)
	if out.Applied {
		e.logger.Debug("Rule adjusted prediction",
			"merchant", txn.Merchant,
			"kind", out.Kind,
			"from", out.OriginalCategory,
			"to", out.Category)
	}
	return model.AIResult(out.Category, out.Confidence, pred.Rationale, out.Applied)
}
