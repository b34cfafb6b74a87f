// Package rules adjusts model predictions with keyword and amount heuristics.
package rules

import (
	"math"
	"strings"

	"github.com/Veraticus/cardsort/internal/config"
)

// Kind names the rule that changed a prediction.
type Kind string

// Rule kinds.
const (
	KindNone            Kind = ""
	KindKeywordBoost    Kind = "keyword_boost"
	KindKeywordOverride Kind = "keyword_override"
	KindAmountPattern   Kind = "amount_pattern"
)

// Outcome is the post-processed prediction.
type Outcome struct {
	Category         string
	OriginalCategory string
	Kind             Kind
	Confidence       float64
	Applied          bool
}

// Engine applies the configured rules. It holds no mutable state.
type Engine struct {
	cfg      config.Rules
	keywords []compiledRule
}

type compiledRule struct {
	category string
	keywords []string // lower-cased
}

// New compiles cfg into an Engine.
func New(cfg config.Rules) *Engine {
	e := &Engine{cfg: cfg}
	for _, kr := range cfg.Keywords {
		cr := compiledRule{category: kr.Category}
		for _, k := range kr.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				cr.keywords = append(cr.keywords, k)
			}
		}
		e.keywords = append(e.keywords, cr)
	}
	return e
}

// Match returns the first rule category whose keyword occurs in merchant.
func (e *Engine) Match(merchant string) (string, bool) {
	m := strings.ToLower(merchant)
	if e.cfg.PriorityKeyword != "" && strings.Contains(m, strings.ToLower(e.cfg.PriorityKeyword)) {
		return e.cfg.PriorityCategory, true
	}
	for _, r := range e.keywords {
		for _, k := range r.keywords {
			if strings.Contains(m, k) {
				return r.category, true
			}
		}
	}
	return "", false
}

// Hints lists every category with at least one keyword hit, in table order.
func (e *Engine) Hints(merchant string) []string {
	m := strings.ToLower(merchant)
	var hints []string
	for _, r := range e.keywords {
		for _, k := range r.keywords {
			if strings.Contains(m, k) {
				hints = append(hints, r.category)
				break
			}
		}
	}
	return hints
}

// Process validates a prediction against keyword rules, then amount patterns.
// amount is ignored when not positive.
func (e *Engine) Process(merchant, category string, confidence float64, amount int64) Outcome {
	out := e.validateKeywords(merchant, category, confidence)
	if amount > 0 {
		if cat, ok := e.amountPattern(merchant, out.Category, amount); ok {
			out.Category = cat
			out.Confidence = e.cfg.AmountConfidence
			out.Applied = true
			out.Kind = KindAmountPattern
		}
	}
	return out
}

func (e *Engine) validateKeywords(merchant, category string, confidence float64) Outcome {
	out := Outcome{Category: category, Confidence: confidence, OriginalCategory: category}

	ruleCat, ok := e.Match(merchant)
	if !ok {
		return out
	}

	if ruleCat == category {
		out.Confidence = math.Min(1.0, confidence+e.cfg.BoostStep)
		out.Applied = true
		out.Kind = KindKeywordBoost
		return out
	}

	if confidence < e.cfg.OverrideBelow {
		out.Category = ruleCat
		out.Confidence = e.cfg.OverrideConfidence
		out.Applied = true
		out.Kind = KindKeywordOverride
	}
	return out
}

func (e *Engine) amountPattern(merchant, category string, amount int64) (string, bool) {
	fuel := e.cfg.PriorityCategory
	if e.cfg.FuelMarker != "" && amount >= e.cfg.FuelMinAmount &&
		strings.Contains(merchant, e.cfg.FuelMarker) && category != fuel {
		return fuel, true
	}

	if amount <= e.cfg.MealMaxAmount && category != e.cfg.MealCategory {
		for _, marker := range e.cfg.MealMarkers {
			if marker != "" && strings.Contains(merchant, marker) {
				return e.cfg.MealCategory, true
			}
		}
	}
	return "", false
}
