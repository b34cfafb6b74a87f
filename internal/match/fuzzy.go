package match

import (
	"github.com/Veraticus/cardsort/internal/model"
)

// Fuzzy matches by normalized indel similarity.
type Fuzzy struct {
	entries   []model.ReferenceEntry
	threshold float64
}

// NewFuzzy creates a fuzzy matcher accepting scores at or above threshold.
func NewFuzzy(entries []model.ReferenceEntry, threshold float64) *Fuzzy {
	return &Fuzzy{entries: entries, threshold: threshold}
}

// Match implements Matcher. Ties keep the earliest entry.
func (f *Fuzzy) Match(merchant string) (model.Result, bool) {
	if merchant == "" {
		return model.NoMatch(), false
	}

	best := -1
	bestScore := 0.0
	for i, e := range f.entries {
		score := Similarity(merchant, e.Merchant)
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore+scoreEpsilon < f.threshold {
		return model.NoMatch(), false
	}
	return model.FuzzyHit(f.entries[best].Category, bestScore), true
}

// Similarity is the indel ratio (len(a)+len(b)-indel)/(len(a)+len(b)) over
// runes, where indel is the number of insertions and deletions turning a into b.
// A one-rune truncation of a six-rune name scores 10/11.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	return float64(2*lcs(ra, rb)) / float64(total)
}

// lcs is the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
