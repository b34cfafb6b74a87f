package match

import (
	"github.com/Veraticus/cardsort/internal/model"
)

// NGram matches by Jaccard overlap of character n-grams.
type NGram struct {
	entries   []model.ReferenceEntry
	grams     []map[string]struct{}
	threshold float64
	n         int
}

// NewNGram precomputes the n-gram sets of every entry.
func NewNGram(entries []model.ReferenceEntry, n int, threshold float64) *NGram {
	if n <= 0 {
		n = 3
	}
	g := &NGram{entries: entries, threshold: threshold, n: n, grams: make([]map[string]struct{}, len(entries))}
	for i, e := range entries {
		g.grams[i] = Grams(e.Merchant, n)
	}
	return g
}

// Match implements Matcher. Only a strictly better score replaces the best so far.
func (g *NGram) Match(merchant string) (model.Result, bool) {
	if merchant == "" {
		return model.NoMatch(), false
	}

	query := Grams(merchant, g.n)
	best := -1
	bestScore := 0.0
	for i := range g.entries {
		score := jaccard(query, g.grams[i])
		if score > bestScore && score+scoreEpsilon >= g.threshold {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return model.NoMatch(), false
	}
	return model.NGramHit(g.entries[best].Category, bestScore), true
}

// Grams returns the set of rune n-grams of s. Strings shorter than n yield
// the whole string as the only gram.
func Grams(s string, n int) map[string]struct{} {
	runes := []rune(s)
	set := make(map[string]struct{})
	if len(runes) == 0 {
		return set
	}
	if len(runes) < n {
		set[s] = struct{}{}
		return set
	}
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

// Jaccard is |A ∩ B| / |A ∪ B| of the n-gram sets of a and b.
func Jaccard(a, b string, n int) float64 {
	return jaccard(Grams(a, n), Grams(b, n))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
