package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/cardsort/internal/model"
)

// Context is optional transaction detail passed alongside the merchant.
type Context struct {
	Date   *time.Time
	Hints  []string // categories suggested by keyword rules
	Amount int64
}

// UsageMetadata is the token accounting of one successful prediction.
type UsageMetadata struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Prediction is always well formed: Category is a taxonomy label or the sentinel.
type Prediction struct {
	Usage      *UsageMetadata
	Category   string
	Rationale  string
	Confidence float64
}

// PredictorConfig configures a Predictor.
type PredictorConfig struct {
	Model       string
	Sentinel    string
	Taxonomy    []string
	Temperature float64
	MaxTokens   int
}

// Predictor asks a model to classify merchants into a fixed taxonomy.
type Predictor struct {
	client   Client
	meter    *Meter
	logger   *slog.Logger
	taxonomy map[string]bool
	system   string
	cfg      PredictorConfig
}

// NewPredictor creates a predictor metering its calls in its own Meter.
func NewPredictor(client Client, cfg PredictorConfig, logger *slog.Logger) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = "미분류"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	taxonomy := make(map[string]bool, len(cfg.Taxonomy))
	for _, c := range cfg.Taxonomy {
		taxonomy[c] = true
	}

	return &Predictor{
		client:   client,
		meter:    NewMeter(cfg.Model),
		logger:   logger,
		taxonomy: taxonomy,
		system:   SystemPrompt(cfg.Taxonomy),
		cfg:      cfg,
	}
}

// Meter exposes the predictor's usage counters.
func (p *Predictor) Meter() *Meter {
	return p.meter
}

// Sentinel is the category assigned when no valid prediction was obtained.
func (p *Predictor) Sentinel() string {
	return p.cfg.Sentinel
}

// Predict never returns an error. Transport failures and malformed answers
// become sentinel predictions with the cause in the rationale.
func (p *Predictor) Predict(ctx context.Context, merchant string, examples []model.ReferenceEntry, c *Context) Prediction {
	resp, err := p.client.Complete(ctx, Request{
		System:      p.system,
		Prompt:      UserPrompt(merchant, examples, c),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		p.meter.RecordFailure()
		class := Classify(err)
		p.logger.Warn("Prediction request failed",
			"merchant", merchant,
			"class", class,
			"error", err)
		return Prediction{
			Category:  p.cfg.Sentinel,
			Rationale: fmt.Sprintf("API 오류(%s): %v", class, err),
		}
	}
	p.meter.RecordSuccess(resp.Usage)

	modelName := resp.Model
	if modelName == "" {
		modelName = p.cfg.Model
	}
	usage := &UsageMetadata{
		Model:        modelName,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}

	parsed := parsePrediction(resp.Text)
	if parsed.Err != nil {
		p.logger.Debug("Structured parse failed, salvaged fields",
			"merchant", merchant,
			"error", parsed.Err)
	}

	switch {
	case parsed.Category == "":
		return Prediction{Category: p.cfg.Sentinel, Rationale: parsed.Rationale, Usage: usage}
	case parsed.Category == p.cfg.Sentinel:
		return Prediction{Category: p.cfg.Sentinel, Rationale: parsed.Rationale, Usage: usage}
	case !p.taxonomy[parsed.Category]:
		p.logger.Warn("Model answered outside the taxonomy",
			"merchant", merchant,
			"category", parsed.Category)
		return Prediction{
			Category:  p.cfg.Sentinel,
			Rationale: fmt.Sprintf("분류 체계에 없는 카테고리 %q: %s", parsed.Category, parsed.Rationale),
			Usage:     usage,
		}
	}

	return Prediction{
		Category:   parsed.Category,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
		Usage:      usage,
	}
}
