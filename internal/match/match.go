// Package match implements the deterministic matching cascade that looks up
// normalized merchants in the reference store.
package match

import (
	"github.com/Veraticus/cardsort/internal/config"
	"github.com/Veraticus/cardsort/internal/model"
)

// scoreEpsilon absorbs float error when a score lands exactly on a threshold.
const scoreEpsilon = 1e-9

// Matcher classifies a normalized merchant, reporting whether it matched.
type Matcher interface {
	Match(merchant string) (model.Result, bool)
}

// Reference is the read side of the reference store.
type Reference interface {
	Lookup(merchant string) (string, bool)
	Entries() []model.ReferenceEntry
}

// Cascade tries each matcher in order and returns the first hit.
type Cascade struct {
	matchers []Matcher
}

// NewCascade builds the Exact, Fuzzy, NGram cascade over ref.
// Entries are snapshotted; rebuild the cascade after the store changes.
func NewCascade(ref Reference, cfg config.Matching) *Cascade {
	entries := ref.Entries()
	return &Cascade{matchers: []Matcher{
		NewExact(ref),
		NewFuzzy(entries, cfg.FuzzyThreshold),
		NewNGram(entries, cfg.NGramSize, cfg.NGramThreshold),
	}}
}

// NewCascadeOf chains arbitrary matchers.
func NewCascadeOf(matchers ...Matcher) *Cascade {
	return &Cascade{matchers: matchers}
}

// Match returns the first hit, or an unmatched result.
func (c *Cascade) Match(merchant string) (model.Result, bool) {
	for _, m := range c.matchers {
		if r, ok := m.Match(merchant); ok {
			return r, true
		}
	}
	return model.NoMatch(), false
}

// Exact matches keys verbatim.
type Exact struct {
	ref Reference
}

// NewExact creates an exact matcher backed by ref's index.
func NewExact(ref Reference) *Exact {
	return &Exact{ref: ref}
}

// Match implements Matcher.
func (e *Exact) Match(merchant string) (model.Result, bool) {
	if merchant == "" {
		return model.NoMatch(), false
	}
	cat, ok := e.ref.Lookup(merchant)
	if !ok {
		return model.NoMatch(), false
	}
	return model.Exact(cat), true
}
