package model

import (
	"errors"
	"fmt"
)

// Source identifies which stage produced a classification.
type Source int

// Classification sources in cascade order.
const (
	SourceUnmatched Source = iota
	SourceExact
	SourceFuzzy
	SourceNGram
	SourceAI
	SourceAIRule
)

var sourceLabels = map[Source]string{
	SourceExact:     "정확일치",
	SourceFuzzy:     "Fuzzy",
	SourceNGram:     "N-gram",
	SourceAI:        "AI",
	SourceAIRule:    "AI+규칙",
	SourceUnmatched: "미매칭",
}

// ErrUnknownSource is returned when a source label cannot be parsed.
var ErrUnknownSource = errors.New("unknown source")

// ErrInvalidResult is returned when restored fields violate the result invariants.
var ErrInvalidResult = errors.New("invalid result")

func (s Source) String() string {
	if label, ok := sourceLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// IsAI reports whether the source came from the language model.
func (s Source) IsAI() bool {
	return s == SourceAI || s == SourceAIRule
}

// ParseSource maps a tabular label back to its Source.
func ParseSource(label string) (Source, error) {
	for src, l := range sourceLabels {
		if l == label {
			return src, nil
		}
	}
	return SourceUnmatched, fmt.Errorf("%w: %q", ErrUnknownSource, label)
}

// Result is the outcome of classifying one transaction.
// The zero value is an unmatched result.
type Result struct {
	category   string
	rationale  string
	confidence float64
	source     Source
}

// Exact is a hit in the reference store's index.
func Exact(category string) Result {
	return Result{category: category, confidence: 1.0, source: SourceExact}
}

// FuzzyHit is an edit-distance match with its similarity score.
func FuzzyHit(category string, score float64) Result {
	return Result{category: category, confidence: clamp(score), source: SourceFuzzy}
}

// NGramHit is an n-gram overlap match with its Jaccard score.
func NGramHit(category string, score float64) Result {
	return Result{category: category, confidence: clamp(score), source: SourceNGram}
}

// NoMatch is the result when nothing classified the transaction.
func NoMatch() Result {
	return Result{source: SourceUnmatched}
}

// AIResult is a language model prediction. ruled marks that a rule changed it.
func AIResult(category string, confidence float64, rationale string, ruled bool) Result {
	if category == "" {
		return NoMatch()
	}
	src := SourceAI
	if ruled {
		src = SourceAIRule
	}
	return Result{category: category, confidence: clamp(confidence), rationale: rationale, source: src}
}

// RestoreResult rebuilds a result read back from a results file.
func RestoreResult(category string, confidence float64, source Source, rationale string) (Result, error) {
	if _, ok := sourceLabels[source]; !ok {
		return Result{}, fmt.Errorf("%w: source %d", ErrInvalidResult, int(source))
	}
	if (category == "") != (source == SourceUnmatched) {
		return Result{}, fmt.Errorf("%w: category %q with source %s", ErrInvalidResult, category, source)
	}
	if confidence < 0 || confidence > 1 {
		return Result{}, fmt.Errorf("%w: confidence %.2f out of range", ErrInvalidResult, confidence)
	}
	if source == SourceExact {
		confidence = 1.0
	}
	if source == SourceUnmatched {
		confidence = 0
	}
	return Result{category: category, confidence: confidence, source: source, rationale: rationale}, nil
}

// Category returns the assigned category, empty when unmatched.
func (r Result) Category() string { return r.category }

// Confidence returns a value in [0, 1].
func (r Result) Confidence() float64 { return r.confidence }

// Source returns the stage that produced the result.
func (r Result) Source() Source { return r.source }

// Rationale is the model's explanation; empty for deterministic matches.
func (r Result) Rationale() string { return r.rationale }

// Matched reports whether a category was assigned.
func (r Result) Matched() bool { return r.source != SourceUnmatched }

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
