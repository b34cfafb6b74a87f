package llm

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Veraticus/cardsort/internal/model"
)

// ErrUnknownStrategy is returned for an unrecognized few-shot strategy.
var ErrUnknownStrategy = errors.New("unknown few-shot strategy")

// Strategy selects how few-shot examples are drawn from the reference store.
type Strategy string

// Few-shot strategies.
const (
	StrategyDiverse Strategy = "diverse"
	StrategyRandom  Strategy = "random"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDiverse, StrategyRandom:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// SelectFewShot draws at most n examples from entries.
//
// StrategyDiverse walks categories in order of first appearance and samples
// max(1, n/categories) entries from each without replacement, stopping once n
// are collected. StrategyRandom samples n entries uniformly without replacement.
func SelectFewShot(entries []model.ReferenceEntry, n int, strategy Strategy, rng *rand.Rand) ([]model.ReferenceEntry, error) {
	switch strategy {
	case StrategyDiverse, StrategyRandom:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if n <= 0 || len(entries) == 0 {
		return nil, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if strategy == StrategyRandom {
		return sample(entries, n, rng), nil
	}

	var order []string
	byCategory := make(map[string][]model.ReferenceEntry)
	for _, e := range entries {
		if _, ok := byCategory[e.Category]; !ok {
			order = append(order, e.Category)
		}
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}

	perCategory := max(1, n/len(order))
	examples := make([]model.ReferenceEntry, 0, n)
	for _, cat := range order {
		examples = append(examples, sample(byCategory[cat], perCategory, rng)...)
		if len(examples) >= n {
			break
		}
	}
	if len(examples) > n {
		examples = examples[:n]
	}
	return examples, nil
}

func sample(entries []model.ReferenceEntry, k int, rng *rand.Rand) []model.ReferenceEntry {
	k = min(k, len(entries))
	idx := rng.Perm(len(entries))[:k]
	out := make([]model.ReferenceEntry, k)
	for i, j := range idx {
		out[i] = entries[j]
	}
	return out
}
